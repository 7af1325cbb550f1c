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

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// LEDLights drives the green and red indicator LEDs. Exactly one of
// the two is lit at any time.
type LEDLights struct {
	granted gpio.PinIO
	denied  gpio.PinIO
}

// NewLEDLights resolves the two named GPIO pins.
func NewLEDLights(grantedPin, deniedPin string) (*LEDLights, error) {
	granted := gpioreg.ByName(grantedPin)
	if granted == nil {
		return nil, fmt.Errorf("gate: no gpio pin %q", grantedPin)
	}
	denied := gpioreg.ByName(deniedPin)
	if denied == nil {
		return nil, fmt.Errorf("gate: no gpio pin %q", deniedPin)
	}
	return NewLEDLightsWithPins(granted, denied), nil
}

// NewLEDLightsWithPins wires the lights to already resolved pins.
func NewLEDLightsWithPins(granted, denied gpio.PinIO) *LEDLights {
	return &LEDLights{granted: granted, denied: denied}
}

// AccessGranted lights green and darkens red.
func (l *LEDLights) AccessGranted() error {
	return l.set(gpio.High, gpio.Low)
}

// AccessDenied lights red and darkens green.
func (l *LEDLights) AccessDenied() error {
	return l.set(gpio.Low, gpio.High)
}

func (l *LEDLights) set(granted, denied gpio.Level) error {
	if err := l.granted.Out(granted); err != nil {
		return fmt.Errorf("granted led on %s: %w", l.granted, err)
	}
	if err := l.denied.Out(denied); err != nil {
		return fmt.Errorf("denied led on %s: %w", l.denied, err)
	}
	return nil
}
