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

package gate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
)

// fakePin records PWM calls. gpiotest.Pin supplies the rest of
// gpio.PinIO but hardcodes PWM as unsupported.
type fakePin struct {
	gpiotest.Pin
	duty   gpio.Duty
	freq   physic.Frequency
	pwms   int
	pwmErr error
}

func (p *fakePin) PWM(duty gpio.Duty, freq physic.Frequency) error {
	if p.pwmErr != nil {
		return p.pwmErr
	}
	p.duty = duty
	p.freq = freq
	p.pwms++
	return nil
}

func TestDutyForAngle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		angle int
		pulse time.Duration
	}{
		{"Zero_Degrees", 0, 500 * time.Microsecond},
		{"Quarter_Turn", 45, 1000 * time.Microsecond},
		{"Half_Turn", 90, 1500 * time.Microsecond},
		{"Full_Sweep", 180, 2500 * time.Microsecond},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			want := gpio.Duty(int64(gpio.DutyMax) * int64(tt.pulse) / int64(20*time.Millisecond))
			assert.Equal(t, want, dutyForAngle(tt.angle))
		})
	}
}

func TestServo_OpenClose(t *testing.T) {
	t.Parallel()

	pin := &fakePin{Pin: gpiotest.Pin{N: "GPIO18"}}
	servo, err := NewServoWithPin(pin, 90, 0)
	require.NoError(t, err)

	require.NoError(t, servo.Open())
	assert.Equal(t, dutyForAngle(90), pin.duty)
	assert.Equal(t, servoFrequency, pin.freq)
	assert.Equal(t, 1, pin.pwms)

	require.NoError(t, servo.Close())
	assert.Equal(t, dutyForAngle(0), pin.duty)
	assert.Equal(t, 2, pin.pwms)
}

func TestNewServoWithPin_AngleRange(t *testing.T) {
	t.Parallel()

	pin := &fakePin{Pin: gpiotest.Pin{N: "GPIO18"}}

	_, err := NewServoWithPin(pin, -1, 0)
	require.Error(t, err)

	_, err = NewServoWithPin(pin, 90, 181)
	require.Error(t, err)

	_, err = NewServoWithPin(pin, 0, 180)
	require.NoError(t, err)
}

func TestNewServo_UnknownPin(t *testing.T) {
	t.Parallel()

	_, err := NewServo("no-such-pin", 90, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no gpio pin")
}

func TestServo_PWMError(t *testing.T) {
	t.Parallel()

	pin := &fakePin{Pin: gpiotest.Pin{N: "GPIO18"}, pwmErr: errors.New("not wired")}
	servo, err := NewServoWithPin(pin, 90, 0)
	require.NoError(t, err)

	err = servo.Open()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "servo pwm")
}
