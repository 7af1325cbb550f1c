// gatectl
// Copyright (c) 2025 The Gatectl Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of gatectl.
//
// gatectl is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// gatectl is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with gatectl; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/GatectlProject/gatectl/rc522"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/dev/serial0", cfg.Host.Port)
	assert.Equal(t, 9600, cfg.Host.Baud)
	assert.Equal(t, 50*time.Millisecond, cfg.Host.PollInterval.Std())
	assert.Equal(t, 15, cfg.Card.MaxRetries)
	assert.Equal(t, 400*time.Millisecond, cfg.Card.RetryDelay.Std())
	assert.Equal(t, 10*time.Second, cfg.Gate.HoldTimeout.Std())
	assert.Equal(t, 500, cfg.Sensor.ThresholdMM)
}

func TestDuration_UnmarshalText(t *testing.T) {
	t.Parallel()

	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("400ms")))
	assert.Equal(t, 400*time.Millisecond, d.Std())

	require.Error(t, d.UnmarshalText([]byte("soon")))
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nope.yaml")
	cfg, err := Load(path, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
log_level: debug
host:
  baud: 115200
  poll_interval: 20ms
card:
  max_retries: 3
  key: A0A1A2A3A4A5
gate:
  hold_timeout: 5s
`)

	cfg, err := Load(path, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 115200, cfg.Host.Baud)
	assert.Equal(t, 20*time.Millisecond, cfg.Host.PollInterval.Std())
	assert.Equal(t, 3, cfg.Card.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Gate.HoldTimeout.Std())

	// Untouched sections keep their defaults.
	assert.Equal(t, "/dev/serial0", cfg.Host.Port)
	assert.Equal(t, byte(4), cfg.Card.PlateBlock)
}

func TestLoad_BadYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "host: [not, a, mapping")
	_, err := Load(path, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("GATECTL_SERIAL_PORT", "/dev/ttyUSB0")
	t.Setenv("GATECTL_SERIAL_BAUD", "19200")
	t.Setenv("GATECTL_LOG_LEVEL", "trace")

	path := writeConfig(t, "host:\n  baud: 115200\n")
	cfg, err := Load(path, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Host.Port)
	assert.Equal(t, 19200, cfg.Host.Baud, "environment must win over the file")
	assert.Equal(t, "trace", cfg.LogLevel)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		contents string
		want     string
	}{
		{"Bad_Transport", "reader:\n  transport: uart\n", "unknown reader transport"},
		{"Trailer_Block", "card:\n  plate_block: 7\n", "sector trailer"},
		{"Bad_Key", "card:\n  key: XYZ\n", "card key"},
		{"Same_Angles", "gate:\n  open_angle: 0\n", "angles are the same"},
		{"Zero_Threshold", "sensor:\n  threshold_mm: -1\n", "threshold"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, tt.contents)
			_, err := Load(path, quietLogger())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_CardPolicy(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Card.Key = "A0A1A2A3A4A5"

	policy, err := cfg.CardPolicy()
	require.NoError(t, err)
	assert.Equal(t, rc522.Key{0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5}, policy.Key)
	assert.Equal(t, 15, policy.MaxRetries)
	assert.Equal(t, 400*time.Millisecond, policy.RetryDelay)
	assert.Equal(t, byte(4), policy.PlateBlock)
	assert.Equal(t, byte(5), policy.BalanceBlock)
}

func TestParseKey(t *testing.T) {
	t.Parallel()

	key, err := ParseKey("FFFFFFFFFFFF")
	require.NoError(t, err)
	assert.Equal(t, rc522.DefaultKey, key)

	_, err = ParseKey("FFFF")
	require.Error(t, err)

	_, err = ParseKey("GGGGGGGGGGGG")
	require.Error(t, err)
}

func TestSensorConfig_Threshold(t *testing.T) {
	t.Parallel()

	s := SensorConfig{ThresholdMM: 500}
	assert.Equal(t, 500*physic.MilliMetre, s.Threshold())
}
