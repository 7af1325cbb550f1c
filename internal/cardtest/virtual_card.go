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

package cardtest

// VirtualCard represents a simulated MIFARE Classic card for testing.
type VirtualCard struct {
	// UID is the card identifier, 4 or 7 bytes.
	UID []byte
	// SAK is the final select acknowledge value.
	SAK byte
	// KeyA and KeyB are the sector keys checked during authentication.
	// The simulator applies them to all sectors.
	KeyA [6]byte
	KeyB [6]byte
	// Blocks is the card memory, 64 blocks of 16 bytes.
	Blocks [64][16]byte
	// Present reports whether the card is in the field.
	Present bool
	// Halted is set after a HLTA command and cleared when the field
	// drops. A halted card ignores REQA but still answers WUPA.
	Halted bool

	// RefuseWrites lists blocks whose write command is answered with
	// a NAK.
	RefuseWrites map[byte]bool
	// RefuseData makes the card NAK the payload step of every write.
	RefuseData bool

	atqa         [2]byte
	probesToSkip int
}

// NewClassic1K creates a present MIFARE Classic 1K card with factory
// keys, empty data blocks and standard trailer contents. A nil uid
// picks a fixed 4-byte default.
func NewClassic1K(uid []byte) *VirtualCard {
	if uid == nil {
		uid = []byte{0xDE, 0xAD, 0xBE, 0xEF}
	}

	card := &VirtualCard{
		UID:          append([]byte(nil), uid...),
		SAK:          0x08,
		KeyA:         [6]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		KeyB:         [6]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		Present:      true,
		RefuseWrites: make(map[byte]bool),
		atqa:         [2]byte{0x04, 0x00},
	}
	if len(uid) == 7 {
		card.atqa = [2]byte{0x44, 0x00}
	}

	// Block 0 carries the UID like a real manufacturer block.
	copy(card.Blocks[0][:], card.UID)

	for sector := 0; sector < 16; sector++ {
		trailer := sector*4 + 3
		copy(card.Blocks[trailer][:], []byte{
			0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // Key A
			0xFF, 0x07, 0x80, 0x69, // Access bits
			0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // Key B
		})
	}

	return card
}

// Remove takes the card out of the field.
func (v *VirtualCard) Remove() {
	v.Present = false
}

// Insert puts the card back into the field.
func (v *VirtualCard) Insert() {
	v.Present = true
}

// AppearAfterProbes makes the card ignore the next n wake-up probes,
// simulating a card that is still being moved into the field.
func (v *VirtualCard) AppearAfterProbes(n int) {
	v.probesToSkip = n
}

// SetBlock fills one data block, zero padded.
func (v *VirtualCard) SetBlock(block byte, data []byte) {
	v.Blocks[block] = [16]byte{}
	copy(v.Blocks[block][:], data)
}

// cascadePart returns the four anticollision bytes for a cascade level,
// or nil when the level does not apply to this UID length.
func (v *VirtualCard) cascadePart(level byte) []byte {
	switch {
	case level == piccSelCL1 && len(v.UID) == 4:
		return v.UID[:4]
	case level == piccSelCL1 && len(v.UID) == 7:
		return append([]byte{piccCT}, v.UID[:3]...)
	case level == piccSelCL2 && len(v.UID) == 7:
		return v.UID[3:7]
	}
	return nil
}

// sak returns the select acknowledge for a cascade level.
func (v *VirtualCard) sak(level byte) byte {
	if len(v.UID) == 7 && level == piccSelCL1 {
		// UID not complete, cascade bit set.
		return 0x04
	}
	return v.SAK
}

// uidTail returns the four UID bytes used by Crypto1.
func (v *VirtualCard) uidTail() []byte {
	return v.UID[len(v.UID)-4:]
}
