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

package rc522

import (
	"fmt"
	"time"

	"github.com/GatectlProject/gatectl/internal/clock"
)

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithTimeout sets the card response timeout for device operations
func WithTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		return d.SetTimeout(timeout)
	}
}

// WithClock sets the time source used for timeout tracking and
// polling delays. Tests substitute a fake clock here.
func WithClock(clk clock.Clock) Option {
	return func(d *Device) error {
		if clk == nil {
			return fmt.Errorf("%w: nil clock", ErrInvalidParameter)
		}
		d.clk = clk
		return nil
	}
}

// WithAntennaGain sets the receiver gain applied during Init
func WithAntennaGain(gain AntennaGain) Option {
	return func(d *Device) error {
		if gain&^gainMask != 0 {
			return fmt.Errorf("%w: antenna gain 0x%02X", ErrInvalidParameter, byte(gain))
		}
		d.gain = gain
		return nil
	}
}
