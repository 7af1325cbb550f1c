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
	"bytes"
	"fmt"

	rc522 "github.com/GatectlProject/gatectl/rc522"
)

// MinIDLength is the shortest canonical identifier accepted for a
// write target. A 4-byte UID renders to exactly 8 hex characters, so
// anything shorter cannot name a real card.
const MinIDLength = 8

// Record is the account data stored on a card: the vehicle's plate
// number and a text-encoded decimal balance, one block each.
type Record struct {
	Plate   string
	Balance string
}

// EncodePlate returns the plate field as a block payload, zero padded
// and truncated at the block boundary.
func (r Record) EncodePlate() []byte {
	return encodeField(r.Plate)
}

// EncodeBalance returns the balance field as a block payload.
func (r Record) EncodeBalance() []byte {
	return encodeField(r.Balance)
}

// DecodeRecord rebuilds a Record from raw plate and balance blocks,
// dropping the zero padding.
func DecodeRecord(plate, balance []byte) Record {
	return Record{
		Plate:   decodeField(plate),
		Balance: decodeField(balance),
	}
}

func encodeField(s string) []byte {
	block := make([]byte, rc522.BlockSize)
	copy(block, s)
	return block
}

func decodeField(block []byte) string {
	if i := bytes.IndexByte(block, 0); i >= 0 {
		block = block[:i]
	}
	return string(block)
}

// CanonicalID renders a card UID the way it travels on the wire:
// uppercase hexadecimal, no separators.
func CanonicalID(uid []byte) string {
	return fmt.Sprintf("%X", uid)
}
