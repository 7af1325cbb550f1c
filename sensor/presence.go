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

package sensor

import "periph.io/x/conn/v3/physic"

// DefaultThreshold is the deployed decision distance: anything closer
// than half a metre is a car in the lane.
const DefaultThreshold = 500 * physic.MilliMetre

// Detector turns raw range readings into car arrived and left edges. A
// reading at or below the threshold means a car is present. Callbacks
// fire only when the decision flips, never on repeats. The lane starts
// out empty.
type Detector struct {
	threshold  physic.Distance
	onDetected func() error
	onLeft     func() error
	present    bool
}

// NewDetector builds a detector. A zero or negative threshold selects
// DefaultThreshold. Either callback may be nil.
func NewDetector(threshold physic.Distance, onDetected, onLeft func() error) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{threshold: threshold, onDetected: onDetected, onLeft: onLeft}
}

// Update feeds one reading. The error is whatever the fired callback
// returned; the flipped state sticks even then.
func (d *Detector) Update(dist physic.Distance) error {
	near := dist <= d.threshold
	if near == d.present {
		return nil
	}
	d.present = near

	if near {
		if d.onDetected != nil {
			return d.onDetected()
		}
		return nil
	}
	if d.onLeft != nil {
		return d.onLeft()
	}
	return nil
}

// Present reports the last decided state.
func (d *Detector) Present() bool {
	return d.present
}
