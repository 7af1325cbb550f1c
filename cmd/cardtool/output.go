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

package main

import (
	"fmt"

	"github.com/GatectlProject/gatectl/card"
	"github.com/GatectlProject/gatectl/rc522"
)

// Output handles consistent formatting of messages
type Output struct{}

// NewOutput creates a new output handler
func NewOutput() *Output {
	return &Output{}
}

// Probing prints the header for one reader probe
func (*Output) Probing(kind, device string) {
	_, _ = fmt.Printf("Probing %s reader at %s... ", kind, deviceLabel(device))
}

// ProbeMiss prints the failure indicator for one probe
func (*Output) ProbeMiss() {
	_, _ = fmt.Print("FAIL\n")
}

// ProbeHit prints the success indicator with the chip revision
func (*Output) ProbeHit(version rc522.Version) {
	_, _ = fmt.Printf("OK (%s)\n", version)
}

// Version prints the chip revision
func (*Output) Version(version rc522.Version) {
	_, _ = fmt.Printf("MFRC522 %s\n", version)
}

// Watching prints the watch mode banner
func (*Output) Watching() {
	_, _ = fmt.Print("Watching for cards. Press Ctrl-C to stop.\n")
}

// CardSeen prints a freshly detected card
func (*Output) CardSeen(c *rc522.Card) {
	_, _ = fmt.Printf("CARD: %s (UID: %X)\n", cardType(c), c.UID)
}

// CardRemoved prints the card removal notice in watch mode
func (*Output) CardRemoved() {
	_, _ = fmt.Print("Card removed - ready for next card...\n")
}

// Record prints a full parking record
func (*Output) Record(id string, rec card.Record) {
	_, _ = fmt.Printf("UID:     %s\n", id)
	_, _ = fmt.Printf("Plate:   %s\n", rec.Plate)
	_, _ = fmt.Printf("Balance: %s\n", rec.Balance)
}

// WriteResult prints the outcome of a write transaction
func (*Output) WriteResult(status card.Status) {
	_, _ = fmt.Printf("Write result: %s\n", status)
}

// Error prints an error message
func (*Output) Error(format string, args ...any) {
	_, _ = fmt.Printf("ERROR: "+format+"\n", args...)
}

func deviceLabel(device string) string {
	if device == "" {
		return "(first bus)"
	}
	return device
}

func cardType(c *rc522.Card) string {
	if c.IsClassic1K() {
		return "MIFARE Classic 1K"
	}
	return fmt.Sprintf("ISO14443A SAK 0x%02X", c.SAK)
}
