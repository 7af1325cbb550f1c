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

package card

import (
	"testing"

	rc522 "github.com/GatectlProject/gatectl/rc522"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_EncodePlate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		plate string
		want  []byte
	}{
		{
			name:  "Short_Text_Zero_Padded",
			plate: "RAB123C",
			want:  []byte{'R', 'A', 'B', '1', '2', '3', 'C', 0, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name:  "Empty",
			plate: "",
			want:  make([]byte, rc522.BlockSize),
		},
		{
			name:  "Exact_Block",
			plate: "ABCDEFGHIJKLMNOP",
			want:  []byte("ABCDEFGHIJKLMNOP"),
		},
		{
			name:  "Truncated_At_Block_Boundary",
			plate: "ABCDEFGHIJKLMNOPQRS",
			want:  []byte("ABCDEFGHIJKLMNOP"),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Record{Plate: tt.plate}.EncodePlate()
			require.Len(t, got, rc522.BlockSize)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeRecord(t *testing.T) {
	t.Parallel()

	rec := Record{Plate: "RAB123C", Balance: "1250.50"}
	got := DecodeRecord(rec.EncodePlate(), rec.EncodeBalance())
	assert.Equal(t, rec, got)
}

func TestDecodeRecord_FullBlocks(t *testing.T) {
	t.Parallel()

	got := DecodeRecord([]byte("ABCDEFGHIJKLMNOP"), []byte("0123456789012345"))
	assert.Equal(t, "ABCDEFGHIJKLMNOP", got.Plate)
	assert.Equal(t, "0123456789012345", got.Balance)
}

func TestCanonicalID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		uid  []byte
		want string
	}{
		{name: "Four_Bytes", uid: []byte{0x1A, 0x2B, 0x3C, 0x4D}, want: "1A2B3C4D"},
		{name: "Seven_Bytes", uid: []byte{0x04, 0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC}, want: "04123456789ABC"},
		{name: "Leading_Zero", uid: []byte{0x00, 0x01, 0x02, 0x03}, want: "00010203"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CanonicalID(tt.uid))
		})
	}
}

func TestCanonicalID_MeetsMinLength(t *testing.T) {
	t.Parallel()

	// The shortest real UID is four bytes, which renders to exactly
	// the minimum accepted identifier length.
	assert.Len(t, CanonicalID([]byte{1, 2, 3, 4}), MinIDLength)
}
