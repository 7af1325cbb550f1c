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

// Package sensor measures the distance to whatever sits in the gate
// lane and turns the readings into car arrived and left events.
package sensor

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
)

// ErrNoEcho means the sensor saw no reflection within the timeout. For
// an ultrasonic ranger that is the normal reading of an empty lane.
var ErrNoEcho = errors.New("sensor: no echo")

const (
	// MaxRange is the rated range of the HC-SR04. A missing echo is
	// reported as this distance.
	MaxRange = 4 * physic.Metre

	// DefaultEchoTimeout comfortably covers a MaxRange round trip.
	DefaultEchoTimeout = 30 * time.Millisecond

	// The module starts a measurement on a trigger pulse of at least
	// ten microseconds.
	triggerPulse = 10 * time.Microsecond

	// Speed of sound in air at room temperature, in metres per
	// second. Numerically the same in nanometres per nanosecond.
	speedOfSound = 343
)

// Ranger measures the distance to the nearest obstacle.
type Ranger interface {
	Distance() (physic.Distance, error)
}

// Ultrasonic drives an HC-SR04 style ranger over two GPIO lines.
type Ultrasonic struct {
	trig    gpio.PinIO
	echo    gpio.PinIO
	timeout time.Duration
}

// NewUltrasonic resolves the named trigger and echo pins.
func NewUltrasonic(trigName, echoName string, timeout time.Duration) (*Ultrasonic, error) {
	trig := gpioreg.ByName(trigName)
	if trig == nil {
		return nil, fmt.Errorf("sensor: no gpio pin %q", trigName)
	}
	echo := gpioreg.ByName(echoName)
	if echo == nil {
		return nil, fmt.Errorf("sensor: no gpio pin %q", echoName)
	}
	return NewUltrasonicWithPins(trig, echo, timeout)
}

// NewUltrasonicWithPins wires the ranger to already resolved pins and
// puts them in their idle state.
func NewUltrasonicWithPins(trig, echo gpio.PinIO, timeout time.Duration) (*Ultrasonic, error) {
	if timeout <= 0 {
		timeout = DefaultEchoTimeout
	}
	if err := echo.In(gpio.Float, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("sensor: arm echo pin: %w", err)
	}
	if err := trig.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("sensor: settle trigger pin: %w", err)
	}
	return &Ultrasonic{trig: trig, echo: echo, timeout: timeout}, nil
}

// Distance fires one measurement. The echo line goes high for the
// sound's round trip time, so half of it at the speed of sound is the
// distance to the target.
func (u *Ultrasonic) Distance() (physic.Distance, error) {
	if err := u.trig.Out(gpio.High); err != nil {
		return 0, fmt.Errorf("sensor: trigger high: %w", err)
	}
	time.Sleep(triggerPulse)
	if err := u.trig.Out(gpio.Low); err != nil {
		return 0, fmt.Errorf("sensor: trigger low: %w", err)
	}

	if !u.echo.WaitForEdge(u.timeout) {
		return 0, fmt.Errorf("%w: echo never rose", ErrNoEcho)
	}
	start := time.Now()
	if !u.echo.WaitForEdge(u.timeout) {
		return 0, fmt.Errorf("%w: echo never fell", ErrNoEcho)
	}
	return distanceFromEcho(time.Since(start)), nil
}

// distanceFromEcho converts an echo pulse width to one-way distance.
func distanceFromEcho(echo time.Duration) physic.Distance {
	if echo <= 0 {
		return 0
	}
	return physic.Distance(echo.Nanoseconds() * speedOfSound / 2)
}
