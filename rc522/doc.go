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

/*
Package rc522 drives MFRC522 contactless reader chips.

The MFRC522 is a 13.56 MHz reader IC for ISO14443A cards, ubiquitous on
the cheap blue breakout boards sold for Raspberry Pi and Arduino use.
Unlike frame-oriented controllers it exposes a raw register file, so
this package implements the card protocol itself: wake-up,
anticollision, select, MIFARE Classic Crypto1 authentication and block
access.

Features:
  - SPI and I2C transports with a common register interface
  - WUPA-based detection that also finds previously halted cards
  - Full cascade handling for 4, 7 and 10 byte UIDs
  - MIFARE Classic authentication, block read and two-step block write
  - Chip revision probing for genuine and clone silicon
  - Deterministic timeouts driven by the on-chip receive watchdog

Basic Usage:

	import (
	    "github.com/GatectlProject/gatectl/rc522"
	    "github.com/GatectlProject/gatectl/rc522/transport/spi"
	)

	transport, err := spi.New("/dev/spidev0.0")
	if err != nil {
	    log.Fatal(err)
	}

	device, err := rc522.New(transport, rc522.WithTimeout(100*time.Millisecond))
	if err != nil {
	    log.Fatal(err)
	}
	defer device.Close()

	ctx := context.Background()
	if err := device.Init(ctx); err != nil {
	    log.Fatal(err)
	}

	card, err := device.DetectCard(ctx)
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Printf("card uid=%X\n", card.UID)

	if err := device.Authenticate(ctx, rc522.KeyA, 4, rc522.DefaultKey, card.UID); err != nil {
	    log.Fatal(err)
	}
	defer device.StopCrypto()

	data, err := device.ReadBlock(ctx, 4)
	if err != nil {
	    log.Fatal(err)
	}

Error Handling:

All operations return sentinel errors that can be inspected:

	if errors.Is(err, rc522.ErrNoCard) {
	    // nothing in the field right now
	}

Thread Safety:

Device operations are not thread-safe. The chip serializes protocol
state in hardware, so callers must serialize access themselves.
*/
package rc522
