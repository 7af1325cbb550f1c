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
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
)

// Standard hobby servo signal: a 50 Hz frame with the position encoded
// in a 500us to 2500us pulse sweeping 0 to 180 degrees.
const (
	servoPeriod    = 20 * time.Millisecond
	servoFrequency = 50 * physic.Hertz
	servoMinPulse  = 500 * time.Microsecond
	servoMaxPulse  = 2500 * time.Microsecond
	servoMaxAngle  = 180
)

// Servo drives the gate arm through a hobby servo horn.
type Servo struct {
	pin         gpio.PinIO
	openAngle   int
	closedAngle int
}

// NewServo resolves the named GPIO pin and returns a servo that swings
// between the two angles.
func NewServo(pinName string, openAngle, closedAngle int) (*Servo, error) {
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("gate: no gpio pin %q", pinName)
	}
	return NewServoWithPin(pin, openAngle, closedAngle)
}

// NewServoWithPin wires a servo to an already resolved pin. Tests
// substitute a recording pin here.
func NewServoWithPin(pin gpio.PinIO, openAngle, closedAngle int) (*Servo, error) {
	for _, angle := range []int{openAngle, closedAngle} {
		if angle < 0 || angle > servoMaxAngle {
			return nil, fmt.Errorf("gate: servo angle %d out of range 0..%d", angle, servoMaxAngle)
		}
	}
	return &Servo{pin: pin, openAngle: openAngle, closedAngle: closedAngle}, nil
}

// Open swings the arm to the open position.
func (s *Servo) Open() error {
	return s.moveTo(s.openAngle)
}

// Close swings the arm to the closed position.
func (s *Servo) Close() error {
	return s.moveTo(s.closedAngle)
}

func (s *Servo) moveTo(angle int) error {
	if err := s.pin.PWM(dutyForAngle(angle), servoFrequency); err != nil {
		return fmt.Errorf("servo pwm on %s: %w", s.pin, err)
	}
	return nil
}

// dutyForAngle maps degrees onto the duty cycle of the servo pulse
// within one 20ms frame.
func dutyForAngle(angle int) gpio.Duty {
	pulse := servoMinPulse + time.Duration(angle)*(servoMaxPulse-servoMinPulse)/servoMaxAngle
	return gpio.Duty(int64(gpio.DutyMax) * int64(pulse) / int64(servoPeriod))
}
