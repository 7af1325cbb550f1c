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

// Buzzer is an active buzzer on a single GPIO line.
type Buzzer struct {
	pin gpio.PinIO
}

// NewBuzzer resolves the named GPIO pin.
func NewBuzzer(pinName string) (*Buzzer, error) {
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("gate: no gpio pin %q", pinName)
	}
	return NewBuzzerWithPin(pin), nil
}

// NewBuzzerWithPin wires the buzzer to an already resolved pin.
func NewBuzzerWithPin(pin gpio.PinIO) *Buzzer {
	return &Buzzer{pin: pin}
}

// On starts the buzzer.
func (b *Buzzer) On() error {
	if err := b.pin.Out(gpio.High); err != nil {
		return fmt.Errorf("buzzer on %s: %w", b.pin, err)
	}
	return nil
}

// Off silences the buzzer.
func (b *Buzzer) Off() error {
	if err := b.pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("buzzer on %s: %w", b.pin, err)
	}
	return nil
}
