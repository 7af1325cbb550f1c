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

import "fmt"

// Status is the outcome of a card transaction, with stage granularity:
// the host decides from it whether to retry, ask for the card to be
// presented again, or abort.
type Status int

const (
	// StatusSuccess means every block was written and verified.
	StatusSuccess Status = iota

	// StatusNoCard means no card answered within the retry budget.
	StatusNoCard

	// StatusMismatch means a card answered but its identifier differs
	// from the transaction target. Never retried automatically.
	StatusMismatch

	// StatusAuthFailed means a block authentication was refused.
	StatusAuthFailed

	// StatusPlateWriteFailed means the plate block write did not
	// complete after successful authentication.
	StatusPlateWriteFailed

	// StatusBalanceWriteFailed means the balance block write did not
	// complete. The plate block has already been written at this
	// point.
	StatusBalanceWriteFailed
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNoCard:
		return "no card"
	case StatusMismatch:
		return "card mismatch"
	case StatusAuthFailed:
		return "authentication failed"
	case StatusPlateWriteFailed:
		return "plate write failed"
	case StatusBalanceWriteFailed:
		return "balance write failed"
	default:
		return fmt.Sprintf("unknown status (%d)", int(s))
	}
}
