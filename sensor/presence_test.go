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

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func countingDetector(threshold physic.Distance) (*Detector, *int, *int) {
	arrived := 0
	left := 0
	d := NewDetector(threshold,
		func() error { arrived++; return nil },
		func() error { left++; return nil },
	)
	return d, &arrived, &left
}

func TestDetector_StartsAbsent(t *testing.T) {
	t.Parallel()

	d, arrived, left := countingDetector(0)

	assert.False(t, d.Present())
	require.NoError(t, d.Update(2*physic.Metre))
	assert.False(t, d.Present())
	assert.Equal(t, 0, *arrived)
	assert.Equal(t, 0, *left, "an empty lane staying empty is not an event")
}

func TestDetector_ArrivalFiresOnce(t *testing.T) {
	t.Parallel()

	d, arrived, left := countingDetector(0)

	require.NoError(t, d.Update(300*physic.MilliMetre))
	assert.True(t, d.Present())
	assert.Equal(t, 1, *arrived)

	require.NoError(t, d.Update(200*physic.MilliMetre))
	assert.Equal(t, 1, *arrived, "a car staying put must not refire")
	assert.Equal(t, 0, *left)
}

func TestDetector_DepartureFiresOnce(t *testing.T) {
	t.Parallel()

	d, arrived, left := countingDetector(0)

	require.NoError(t, d.Update(300*physic.MilliMetre))
	require.NoError(t, d.Update(2*physic.Metre))
	assert.False(t, d.Present())
	assert.Equal(t, 1, *arrived)
	assert.Equal(t, 1, *left)

	require.NoError(t, d.Update(3*physic.Metre))
	assert.Equal(t, 1, *left)
}

func TestDetector_ThresholdBoundary(t *testing.T) {
	t.Parallel()

	at, _, _ := countingDetector(0)
	require.NoError(t, at.Update(DefaultThreshold))
	assert.True(t, at.Present(), "exactly at the threshold counts as present")

	beyond, _, _ := countingDetector(0)
	require.NoError(t, beyond.Update(DefaultThreshold+physic.MilliMetre))
	assert.False(t, beyond.Present())
}

func TestDetector_NilCallbacks(t *testing.T) {
	t.Parallel()

	d := NewDetector(0, nil, nil)

	require.NoError(t, d.Update(100*physic.MilliMetre))
	assert.True(t, d.Present())
	require.NoError(t, d.Update(2*physic.Metre))
	assert.False(t, d.Present())
}

func TestDetector_CallbackError(t *testing.T) {
	t.Parallel()

	boom := errors.New("serial gone")
	d := NewDetector(0, func() error { return boom }, nil)

	err := d.Update(100 * physic.MilliMetre)
	assert.ErrorIs(t, err, boom)
	assert.True(t, d.Present(), "the decision sticks even when the callback fails")
}

func TestNewDetector_DefaultThreshold(t *testing.T) {
	t.Parallel()

	d := NewDetector(0, nil, nil)
	assert.Equal(t, DefaultThreshold, d.threshold)

	custom := NewDetector(physic.Metre, nil, nil)
	assert.Equal(t, physic.Metre, custom.threshold)
}
