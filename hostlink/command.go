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

package hostlink

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GatectlProject/gatectl/card"
)

// Parse errors. Each maps to a wire word via RejectWord.
var (
	// ErrUnknownCommand reports a keyword outside the protocol.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrWriteFormat reports a WRITE without three comma-separated
	// fields after the keyword.
	ErrWriteFormat = errors.New("write command needs id, plate and balance")

	// ErrWriteData reports a structurally valid WRITE whose fields
	// cannot name a real transaction: short identifier, empty plate
	// or empty balance.
	ErrWriteData = errors.New("write command carries invalid data")
)

// Kind discriminates parsed host commands.
type Kind int

const (
	// KindRead asks for the identifier of the card in the field.
	KindRead Kind = iota

	// KindWrite asks for a record write to a specific card.
	KindWrite

	// KindOpenGate raises the gate (OPEN_GATE and GRANT).
	KindOpenGate

	// KindCloseGate lowers the gate (CLOSE_GATE and DENY).
	KindCloseGate

	// KindAlert sounds the warning buzzer.
	KindAlert
)

// String returns the kind's log name.
func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	case KindOpenGate:
		return "open-gate"
	case KindCloseGate:
		return "close-gate"
	case KindAlert:
		return "alert"
	default:
		return "unknown"
	}
}

// Command is one parsed host line. TargetID and Record are meaningful
// for KindWrite only.
type Command struct {
	TargetID string
	Record   card.Record
	Kind     Kind
}

// Parse interprets one complete, trimmed command line. Unrecognized
// input is an error, never silently dropped.
func Parse(line string) (Command, error) {
	switch {
	case line == "READ":
		return Command{Kind: KindRead}, nil
	case line == "OPEN_GATE", line == "GRANT":
		return Command{Kind: KindOpenGate}, nil
	case line == "CLOSE_GATE", line == "DENY":
		return Command{Kind: KindCloseGate}, nil
	case line == "ALERT":
		return Command{Kind: KindAlert}, nil
	case line == "WRITE", strings.HasPrefix(line, "WRITE,"):
		return parseWrite(strings.TrimPrefix(strings.TrimPrefix(line, "WRITE"), ","))
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
	}
}

// parseWrite validates the three fields after the WRITE keyword. The
// split is bounded, so a balance containing commas survives intact.
func parseWrite(rest string) (Command, error) {
	fields := strings.SplitN(rest, ",", 3)
	if len(fields) < 3 {
		return Command{}, ErrWriteFormat
	}

	id, plate, balance := fields[0], fields[1], fields[2]
	if len(id) < card.MinIDLength || plate == "" || balance == "" {
		return Command{}, ErrWriteData
	}

	return Command{
		Kind:     KindWrite,
		TargetID: id,
		Record:   card.Record{Plate: plate, Balance: balance},
	}, nil
}
