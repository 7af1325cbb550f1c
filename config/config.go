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

// Package config loads the daemon configuration: baked-in defaults,
// then an optional YAML file, then GATECTL_* environment overrides.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/GatectlProject/gatectl/card"
	"github.com/GatectlProject/gatectl/rc522"
)

// DefaultPath is where the daemon looks for its file when no -config
// flag is given.
const DefaultPath = "/etc/gatectl/config.yaml"

// HostConfig describes the serial link to the upstream host.
type HostConfig struct {
	// Port is the serial device.
	Port string `yaml:"port"`
	// Baud is the line speed.
	Baud int `yaml:"baud"`
	// PollInterval paces the control loop between host polls.
	PollInterval Duration `yaml:"poll_interval"`
}

// ReaderConfig describes the card reader attachment.
type ReaderConfig struct {
	// Transport selects the bus, "spi" or "i2c".
	Transport string `yaml:"transport"`
	// Device names the bus to open, for example "SPI0.0" or "1".
	// Empty picks the first registered bus.
	Device string `yaml:"device"`
	// Address is the I2C address. Zero picks the reader default.
	Address uint16 `yaml:"address"`
}

// CardConfig holds the card transaction policy.
type CardConfig struct {
	MaxRetries   int      `yaml:"max_retries"`
	RetryDelay   Duration `yaml:"retry_delay"`
	PlateBlock   byte     `yaml:"plate_block"`
	BalanceBlock byte     `yaml:"balance_block"`
	// Key is the sector key as 12 hex digits.
	Key string `yaml:"key"`
}

// GateConfig holds the gate hardware pins and timings.
type GateConfig struct {
	ServoPin      string   `yaml:"servo_pin"`
	OpenAngle     int      `yaml:"open_angle"`
	ClosedAngle   int      `yaml:"closed_angle"`
	GrantedLEDPin string   `yaml:"granted_led_pin"`
	DeniedLEDPin  string   `yaml:"denied_led_pin"`
	BuzzerPin     string   `yaml:"buzzer_pin"`
	HoldTimeout   Duration `yaml:"hold_timeout"`
	AlertDuration Duration `yaml:"alert_duration"`
}

// SensorConfig holds the lane sensor pins and decision distance.
type SensorConfig struct {
	TriggerPin string `yaml:"trigger_pin"`
	EchoPin    string `yaml:"echo_pin"`
	// ThresholdMM is the presence distance in millimetres.
	ThresholdMM int      `yaml:"threshold_mm"`
	EchoTimeout Duration `yaml:"echo_timeout"`
}

// Config is the whole daemon configuration.
type Config struct {
	LogLevel string       `yaml:"log_level"`
	Host     HostConfig   `yaml:"host"`
	Reader   ReaderConfig `yaml:"reader"`
	Card     CardConfig   `yaml:"card"`
	Gate     GateConfig   `yaml:"gate"`
	Sensor   SensorConfig `yaml:"sensor"`
}

// Default returns the deployed configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Host: HostConfig{
			Port:         "/dev/serial0",
			Baud:         9600,
			PollInterval: Duration(50 * time.Millisecond),
		},
		Reader: ReaderConfig{
			Transport: "spi",
			Device:    "SPI0.0",
		},
		Card: CardConfig{
			MaxRetries:   15,
			RetryDelay:   Duration(400 * time.Millisecond),
			PlateBlock:   4,
			BalanceBlock: 5,
			Key:          "FFFFFFFFFFFF",
		},
		Gate: GateConfig{
			ServoPin:      "GPIO18",
			OpenAngle:     90,
			ClosedAngle:   0,
			GrantedLEDPin: "GPIO23",
			DeniedLEDPin:  "GPIO24",
			BuzzerPin:     "GPIO25",
			HoldTimeout:   Duration(10 * time.Second),
			AlertDuration: Duration(3 * time.Second),
		},
		Sensor: SensorConfig{
			TriggerPin:  "GPIO5",
			EchoPin:     "GPIO6",
			ThresholdMM: 500,
			EchoTimeout: Duration(30 * time.Millisecond),
		},
	}
}

// Load assembles the runtime configuration. A missing file falls back
// to defaults so a bare device still comes up; an unreadable or
// invalid file is an error.
func Load(path string, log *logrus.Logger) (*Config, error) {
	if log == nil {
		log = logrus.New()
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("config: .env: %v", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Infof("config: no file at %s, using defaults", path)
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.LogLevel = getEnv("GATECTL_LOG_LEVEL", cfg.LogLevel)
	cfg.Host.Port = getEnv("GATECTL_SERIAL_PORT", cfg.Host.Port)
	cfg.Host.Baud = getEnvInt("GATECTL_SERIAL_BAUD", cfg.Host.Baud)
	cfg.Reader.Transport = getEnv("GATECTL_READER_TRANSPORT", cfg.Reader.Transport)
	cfg.Reader.Device = getEnv("GATECTL_READER_DEVICE", cfg.Reader.Device)
	cfg.Card.Key = getEnv("GATECTL_CARD_KEY", cfg.Card.Key)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

// Validate rejects configurations the hardware cannot run.
func (c *Config) Validate() error {
	if c.Host.Port == "" {
		return errors.New("config: host port is empty")
	}
	if c.Host.Baud <= 0 {
		return fmt.Errorf("config: baud %d out of range", c.Host.Baud)
	}
	if c.Host.PollInterval <= 0 {
		return errors.New("config: poll interval must be positive")
	}

	switch c.Reader.Transport {
	case "spi", "i2c":
	default:
		return fmt.Errorf("config: unknown reader transport %q", c.Reader.Transport)
	}

	if _, err := c.CardPolicy(); err != nil {
		return err
	}

	for _, angle := range []int{c.Gate.OpenAngle, c.Gate.ClosedAngle} {
		if angle < 0 || angle > 180 {
			return fmt.Errorf("config: servo angle %d out of range 0..180", angle)
		}
	}
	if c.Gate.OpenAngle == c.Gate.ClosedAngle {
		return errors.New("config: open and closed servo angles are the same")
	}
	for _, pin := range []string{
		c.Gate.ServoPin, c.Gate.GrantedLEDPin, c.Gate.DeniedLEDPin,
		c.Gate.BuzzerPin, c.Sensor.TriggerPin, c.Sensor.EchoPin,
	} {
		if pin == "" {
			return errors.New("config: gpio pin name is empty")
		}
	}
	if c.Gate.HoldTimeout <= 0 || c.Gate.AlertDuration <= 0 {
		return errors.New("config: gate timings must be positive")
	}

	if c.Sensor.ThresholdMM <= 0 {
		return fmt.Errorf("config: presence threshold %dmm out of range", c.Sensor.ThresholdMM)
	}
	if c.Sensor.EchoTimeout <= 0 {
		return errors.New("config: echo timeout must be positive")
	}
	return nil
}

// CardPolicy converts the card section into the service policy,
// including the decoded key.
func (c *Config) CardPolicy() (card.Policy, error) {
	key, err := ParseKey(c.Card.Key)
	if err != nil {
		return card.Policy{}, err
	}
	policy := card.Policy{
		MaxRetries:   c.Card.MaxRetries,
		RetryDelay:   c.Card.RetryDelay.Std(),
		PlateBlock:   c.Card.PlateBlock,
		BalanceBlock: c.Card.BalanceBlock,
		Key:          key,
	}
	if err := policy.Validate(); err != nil {
		return card.Policy{}, fmt.Errorf("config: %w", err)
	}
	return policy, nil
}

// Threshold returns the presence distance as a typed quantity.
func (s SensorConfig) Threshold() physic.Distance {
	return physic.Distance(s.ThresholdMM) * physic.MilliMetre
}

// ParseKey decodes a sector key given as 12 hex digits.
func ParseKey(s string) (rc522.Key, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return rc522.Key{}, fmt.Errorf("config: card key: %w", err)
	}
	var key rc522.Key
	if len(raw) != len(key) {
		return rc522.Key{}, fmt.Errorf("config: card key must be %d hex digits", 2*len(key))
	}
	copy(key[:], raw)
	return key, nil
}
