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
	"context"
	"errors"
	"fmt"
)

// Card describes a selected ISO14443A card.
type Card struct {
	// UID is the unique identifier, 4, 7 or 10 bytes long.
	UID []byte
	// SAK is the select acknowledge from the last cascade level.
	SAK byte
	// ATQA is the answer to the wake-up request.
	ATQA [2]byte
}

// IsClassic1K reports whether the SAK identifies a MIFARE Classic 1K.
func (c *Card) IsClassic1K() bool {
	return c.SAK == sakClassic1K
}

// DetectCard wakes the field and runs the anticollision and select
// sequence. It returns ErrNoCard when nothing answers the wake-up.
// The wake-up uses WUPA rather than REQA so that cards halted by a
// previous exchange answer again.
func (d *Device) DetectCard(ctx context.Context) (*Card, error) {
	atqa, err := d.wakeup(ctx)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return nil, ErrNoCard
		}
		return nil, err
	}

	card := &Card{ATQA: atqa}
	if err := d.selectCard(ctx, card); err != nil {
		return nil, err
	}

	debugf("card selected uid=%X sak=0x%02X atqa=%X", card.UID, card.SAK, card.ATQA)
	return card, nil
}

// wakeup sends WUPA as a 7-bit short frame and returns the ATQA.
func (d *Device) wakeup(ctx context.Context) ([2]byte, error) {
	// Keep all received bits around if a collision happens, the
	// anticollision loop needs them.
	if err := d.clearRegisterBits(regColl, collValuesAfterColl); err != nil {
		return [2]byte{}, err
	}

	response, validBits, err := d.transceive(ctx, []byte{piccWUPA}, 7)
	if err != nil {
		return [2]byte{}, err
	}
	if len(response) != 2 || validBits != 0 {
		return [2]byte{}, fmt.Errorf(
			"%w: ATQA %d bytes with %d trailing bits", ErrCommunication, len(response), validBits)
	}
	return [2]byte{response[0], response[1]}, nil
}

// selectCard runs anticollision and select through up to three cascade
// levels, accumulating the full UID.
func (d *Device) selectCard(ctx context.Context, card *Card) error {
	levels := []byte{piccSelCL1, piccSelCL2, piccSelCL3}
	uid := make([]byte, 0, 10)

	for _, level := range levels {
		part, err := d.anticollision(ctx, level)
		if err != nil {
			return err
		}

		sak, err := d.selectLevel(ctx, level, part)
		if err != nil {
			return err
		}

		if sak&sakCascade != 0 {
			if part[0] != piccCT {
				return fmt.Errorf("%w: cascade continuation without cascade tag", ErrCommunication)
			}
			uid = append(uid, part[1:4]...)
			continue
		}

		uid = append(uid, part[:4]...)
		card.UID = uid
		card.SAK = sak
		return nil
	}

	return fmt.Errorf("%w: select did not complete after three cascade levels", ErrCommunication)
}

// anticollision requests the four UID bytes of one cascade level and
// verifies their check byte.
func (d *Device) anticollision(ctx context.Context, level byte) ([]byte, error) {
	response, validBits, err := d.transceive(ctx, []byte{level, selAnticollision}, 0)
	if err != nil {
		return nil, err
	}
	if len(response) != 5 || validBits != 0 {
		return nil, fmt.Errorf(
			"%w: anticollision response %d bytes with %d trailing bits",
			ErrCommunication, len(response), validBits)
	}
	if response[0]^response[1]^response[2]^response[3] != response[4] {
		return nil, fmt.Errorf("%w: uid check byte", ErrCommunication)
	}
	return response[:4], nil
}

// selectLevel sends the full select frame for one cascade level and
// returns the SAK byte.
func (d *Device) selectLevel(ctx context.Context, level byte, part []byte) (byte, error) {
	frame := make([]byte, 0, 9)
	frame = append(frame, level, selFullUID)
	frame = append(frame, part...)
	frame = append(frame, part[0]^part[1]^part[2]^part[3])

	frame, err := d.appendCRC(ctx, frame)
	if err != nil {
		return 0, err
	}

	response, validBits, err := d.transceive(ctx, frame, 0)
	if err != nil {
		return 0, err
	}
	if len(response) != 3 || validBits != 0 {
		return 0, fmt.Errorf(
			"%w: select response %d bytes with %d trailing bits",
			ErrCommunication, len(response), validBits)
	}
	if err := d.verifyCRC(ctx, response); err != nil {
		return 0, err
	}
	return response[0], nil
}

// HaltCard sends HLTA to the selected card. A halted card ignores REQA
// until it leaves the field, which keeps it from being detected twice.
// The card acknowledges the halt by staying silent; any answer within
// the timeout window means the halt was rejected.
func (d *Device) HaltCard(ctx context.Context) error {
	frame, err := d.appendCRC(ctx, []byte{piccHaltA, 0x00})
	if err != nil {
		return err
	}

	_, _, err = d.transceive(ctx, frame, 0)
	if err == nil {
		return fmt.Errorf("%w: card answered halt", ErrCommunication)
	}
	if errors.Is(err, ErrTimeout) {
		return nil
	}
	return err
}
