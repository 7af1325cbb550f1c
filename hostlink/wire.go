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

// Package hostlink speaks the framed serial protocol between the gate
// controller and its upstream host: newline-delimited commands in,
// terminated response frames and autonomous notices out.
package hostlink

import (
	"errors"

	"github.com/GatectlProject/gatectl/card"
)

// End terminates every response of the card and parse family, so the
// host can block on read-until-marker without guessing frame length.
const End = "<END>"

// Response words of the card and parse family. Each is sent with the
// End marker appended.
const (
	WordNoCard             = "NO_CARD"
	WordWriteSuccess       = "WRITE_SUCCESS"
	WordCardMismatch       = "CARD_MISMATCH"
	WordAuthFail           = "AUTH_FAIL"
	WordWriteFailPlate     = "WRITE_FAIL_PLATE"
	WordWriteFailBalance   = "WRITE_FAIL_BALANCE"
	WordInvalidWriteFormat = "INVALID_WRITE_FORMAT"
	WordInvalidWriteData   = "INVALID_WRITE_DATA"
	WordUnknownCommand     = "UNKNOWN_COMMAND"
)

// Notice is a single-line message of the gate family, sent without the
// End marker. Some answer host commands, some are autonomous.
type Notice string

const (
	NoticeGateOpen     Notice = "GATE_OPEN"
	NoticeGateClosed   Notice = "GATE_CLOSED"
	NoticeAutoClose    Notice = "GATE_AUTO_CLOSE"
	NoticeCarDetected  Notice = "CAR_DETECTED"
	NoticeCarLeft      Notice = "CAR_LEFT"
	NoticeAlertSounded Notice = "ALERT_SOUNDED"
)

// StatusWord maps a write transaction outcome to its wire word.
func StatusWord(status card.Status) string {
	switch status {
	case card.StatusSuccess:
		return WordWriteSuccess
	case card.StatusNoCard:
		return WordNoCard
	case card.StatusMismatch:
		return WordCardMismatch
	case card.StatusAuthFailed:
		return WordAuthFail
	case card.StatusPlateWriteFailed:
		return WordWriteFailPlate
	case card.StatusBalanceWriteFailed:
		return WordWriteFailBalance
	default:
		return WordNoCard
	}
}

// RejectWord maps a Parse error to the wire word reporting it.
func RejectWord(err error) string {
	switch {
	case errors.Is(err, ErrWriteFormat):
		return WordInvalidWriteFormat
	case errors.Is(err, ErrWriteData):
		return WordInvalidWriteData
	default:
		return WordUnknownCommand
	}
}
