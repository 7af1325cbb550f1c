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
	"context"

	rc522 "github.com/GatectlProject/gatectl/rc522"
)

// writeState tracks progress through a write transaction. States only
// ever advance; any failure jumps straight to done carrying its
// Status.
type writeState int

const (
	writeIdle writeState = iota
	writeReinitializing
	writeDetecting
	writeVerifying
	writeAuthPlate
	writePlate
	writeAuthBalance
	writeBalance
	writeDone
)

func (w writeState) String() string {
	switch w {
	case writeIdle:
		return "idle"
	case writeReinitializing:
		return "reinitializing"
	case writeDetecting:
		return "detecting"
	case writeVerifying:
		return "verifying"
	case writeAuthPlate:
		return "authenticating-plate"
	case writePlate:
		return "writing-plate"
	case writeAuthBalance:
		return "authenticating-balance"
	case writeBalance:
		return "writing-balance"
	case writeDone:
		return "done"
	default:
		return "unknown"
	}
}

// WriteRecord writes rec onto the card whose canonical identifier is
// id. The reader is reinitialized first so a failed earlier exchange
// cannot poison this one, detection retries up to the policy budget,
// and the presented card's identifier must match id exactly before
// anything is written. The plate block goes first, then the balance
// block, each behind its own authentication, and the first failing
// stage decides the Status.
//
// The returned error is non-nil only when ctx ends the transaction
// early. Every card-level outcome is a Status, and the reader is back
// in idle state whichever way the transaction ends.
func (s *Service) WriteRecord(ctx context.Context, id string, rec Record) (Status, error) {
	state := writeIdle
	advance := func(next writeState) {
		s.log.Debugf("card: write %s -> %s", state, next)
		state = next
	}

	advance(writeReinitializing)
	if err := s.device.Reinit(ctx); err != nil {
		if ctx.Err() != nil {
			return StatusNoCard, ctx.Err()
		}
		// A reader that fails reinit may still answer; detection
		// decides.
		s.log.Warnf("card: reader reinit before write: %v", err)
	}

	advance(writeDetecting)
	detected, err := s.detect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return StatusNoCard, ctx.Err()
		}
		s.log.Debugf("card: write target never appeared: %v", err)
		return StatusNoCard, nil
	}
	defer s.endSession()

	advance(writeVerifying)
	if presented := CanonicalID(detected.UID); presented != id {
		s.log.Infof("card: write refused, presented %s, target %s", presented, id)
		return StatusMismatch, nil
	}

	advance(writeAuthPlate)
	if err := s.device.Authenticate(ctx, rc522.KeyA, s.policy.PlateBlock, s.policy.Key, detected.UID); err != nil {
		if ctx.Err() != nil {
			return StatusAuthFailed, ctx.Err()
		}
		s.log.Warnf("card: plate block auth: %v", err)
		return StatusAuthFailed, nil
	}

	advance(writePlate)
	if err := s.device.WriteBlock(ctx, s.policy.PlateBlock, rec.EncodePlate()); err != nil {
		if ctx.Err() != nil {
			return StatusPlateWriteFailed, ctx.Err()
		}
		s.log.Warnf("card: plate block write: %v", err)
		return StatusPlateWriteFailed, nil
	}

	advance(writeAuthBalance)
	if err := s.device.Authenticate(ctx, rc522.KeyA, s.policy.BalanceBlock, s.policy.Key, detected.UID); err != nil {
		if ctx.Err() != nil {
			return StatusAuthFailed, ctx.Err()
		}
		s.log.Warnf("card: balance block auth: %v", err)
		return StatusAuthFailed, nil
	}

	advance(writeBalance)
	if err := s.device.WriteBlock(ctx, s.policy.BalanceBlock, rec.EncodeBalance()); err != nil {
		if ctx.Err() != nil {
			return StatusBalanceWriteFailed, ctx.Err()
		}
		s.log.Warnf("card: balance block write: %v", err)
		return StatusBalanceWriteFailed, nil
	}

	advance(writeDone)
	s.log.Infof("card: record written to %s", id)
	return StatusSuccess, nil
}
