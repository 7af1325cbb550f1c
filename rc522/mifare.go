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

// Key is a MIFARE Classic sector key.
type Key [KeySize]byte

// DefaultKey is the factory key of a blank card.
var DefaultKey = Key{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// KeyType selects which of the two sector keys to authenticate with.
type KeyType byte

const (
	// KeyA authenticates with sector key A.
	KeyA KeyType = 0x60
	// KeyB authenticates with sector key B.
	KeyB KeyType = 0x61
)

// Authenticate runs the Crypto1 handshake for the sector containing
// block. The card must be selected first. Authentication sticks until
// StopCrypto, a failed exchange, or the card leaving the field.
func (d *Device) Authenticate(ctx context.Context, keyType KeyType, block byte, key Key, uid []byte) error {
	if keyType != KeyA && keyType != KeyB {
		return fmt.Errorf("%w: key type 0x%02X", ErrInvalidParameter, byte(keyType))
	}
	if len(uid) < 4 {
		return fmt.Errorf("%w: uid must be at least 4 bytes", ErrInvalidParameter)
	}

	frame := make([]byte, 0, 12)
	frame = append(frame, byte(keyType), block)
	frame = append(frame, key[:]...)
	// Crypto1 uses the last four UID bytes regardless of UID length.
	frame = append(frame, uid[len(uid)-4:]...)

	_, _, err := d.communicate(ctx, cmdMFAuthent, irqIdle, frame, 0)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			// A rejected key is silent: the chip never finishes the
			// handshake and the watchdog fires.
			return fmt.Errorf("%w: block %d", ErrAuthFailed, block)
		}
		return err
	}

	status, err := d.transport.ReadRegister(regStatus2)
	if err != nil {
		return err
	}
	if status&status2Crypto1On == 0 {
		return fmt.Errorf("%w: crypto unit not engaged for block %d", ErrAuthFailed, block)
	}
	return nil
}

// StopCrypto disengages the Crypto1 unit after authenticated access.
// The chip refuses to talk to any card while the unit stays engaged.
func (d *Device) StopCrypto() error {
	return d.clearRegisterBits(regStatus2, status2Crypto1On)
}

// ReadBlock reads one 16-byte block. The containing sector must be
// authenticated.
func (d *Device) ReadBlock(ctx context.Context, block byte) ([]byte, error) {
	frame, err := d.appendCRC(ctx, []byte{piccMFRead, block})
	if err != nil {
		return nil, err
	}

	response, validBits, err := d.transceive(ctx, frame, 0)
	if err != nil {
		return nil, err
	}
	if len(response) == 1 && validBits == 4 {
		return nil, fmt.Errorf("%w: read block %d", ErrNack, block)
	}
	if len(response) != BlockSize+2 || validBits != 0 {
		return nil, fmt.Errorf(
			"%w: read response %d bytes with %d trailing bits",
			ErrCommunication, len(response), validBits)
	}
	if err := d.verifyCRC(ctx, response); err != nil {
		return nil, err
	}
	return response[:BlockSize], nil
}

// WriteBlock writes one 16-byte block using the two-step MIFARE
// sequence: announce the target block, collect the 4-bit acknowledge,
// then send the payload and collect the second acknowledge.
func (d *Device) WriteBlock(ctx context.Context, block byte, data []byte) error {
	if len(data) != BlockSize {
		return fmt.Errorf("%w: block payload must be %d bytes, got %d",
			ErrInvalidParameter, BlockSize, len(data))
	}

	frame, err := d.appendCRC(ctx, []byte{piccMFWrite, block})
	if err != nil {
		return err
	}
	if err := d.exchangeForAck(ctx, frame); err != nil {
		return fmt.Errorf("write block %d command: %w", block, err)
	}

	payload, err := d.appendCRC(ctx, append([]byte(nil), data...))
	if err != nil {
		return err
	}
	if err := d.exchangeForAck(ctx, payload); err != nil {
		return fmt.Errorf("write block %d data: %w", block, err)
	}
	return nil
}

// exchangeForAck sends a frame the card answers with a 4-bit code:
// 0xA acknowledges, anything else is a NAK.
func (d *Device) exchangeForAck(ctx context.Context, frame []byte) error {
	response, validBits, err := d.transceive(ctx, frame, 0)
	if err != nil {
		return err
	}
	if len(response) != 1 || validBits != 4 {
		return fmt.Errorf("%w: expected 4-bit acknowledge", ErrCommunication)
	}
	if response[0]&0x0F != piccMFAck {
		return fmt.Errorf("%w: code 0x%X", ErrNack, response[0]&0x0F)
	}
	return nil
}
