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

// Package card implements the parking card transactions that ride on
// the raw reader: identifier reads and the two-block account record
// write, with bounded detection retries and stage-granular outcomes.
package card

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GatectlProject/gatectl/internal/clock"
	"github.com/GatectlProject/gatectl/internal/retry"
	rc522 "github.com/GatectlProject/gatectl/rc522"
	"github.com/sirupsen/logrus"
)

// totalBlocks is the block count of a MIFARE Classic 1K.
const totalBlocks = 64

// Policy holds the tunable constants of a card transaction.
type Policy struct {
	// MaxRetries is the number of detection polls before a
	// transaction gives up with no card.
	MaxRetries int

	// RetryDelay is slept between detection polls.
	RetryDelay time.Duration

	// PlateBlock holds the plate number text.
	PlateBlock byte

	// BalanceBlock holds the balance text.
	BalanceBlock byte

	// Key authenticates both record blocks (key A).
	Key rc522.Key
}

// DefaultPolicy returns the deployed gate controller constants.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   15,
		RetryDelay:   400 * time.Millisecond,
		PlateBlock:   4,
		BalanceBlock: 5,
		Key:          rc522.DefaultKey,
	}
}

// Validate checks the policy for values that could never work against
// a Classic 1K card.
func (p Policy) Validate() error {
	if p.MaxRetries < 1 {
		return fmt.Errorf("card: MaxRetries must be at least 1, got %d", p.MaxRetries)
	}
	if p.RetryDelay < 0 {
		return fmt.Errorf("card: negative RetryDelay %v", p.RetryDelay)
	}
	if err := validateBlock("plate", p.PlateBlock); err != nil {
		return err
	}
	if err := validateBlock("balance", p.BalanceBlock); err != nil {
		return err
	}
	if p.PlateBlock == p.BalanceBlock {
		return fmt.Errorf("card: plate and balance share block %d", p.PlateBlock)
	}
	return nil
}

func validateBlock(name string, block byte) error {
	switch {
	case block >= totalBlocks:
		return fmt.Errorf("card: %s block %d is outside a Classic 1K", name, block)
	case block == 0:
		return fmt.Errorf("card: %s block must not be the manufacturer block", name)
	case (block+1)%4 == 0:
		return fmt.Errorf("card: %s block %d is a sector trailer", name, block)
	}
	return nil
}

// Service runs card transactions against a single reader. It is the
// only component that touches the reader, so no locking is needed: the
// control loop serializes all calls.
type Service struct {
	device *rc522.Device
	clk    clock.Clock
	log    *logrus.Logger
	policy Policy
}

// Option configures a Service.
type Option func(*Service) error

// WithClock substitutes the time source used for retry delays.
func WithClock(clk clock.Clock) Option {
	return func(s *Service) error {
		if clk == nil {
			return errors.New("card: nil clock")
		}
		s.clk = clk
		return nil
	}
}

// WithLogger routes service logging to an existing logger.
func WithLogger(log *logrus.Logger) Option {
	return func(s *Service) error {
		if log == nil {
			return errors.New("card: nil logger")
		}
		s.log = log
		return nil
	}
}

// NewService creates a card service on an initialized reader. A nil
// policy selects DefaultPolicy.
func NewService(device *rc522.Device, policy *Policy, opts ...Option) (*Service, error) {
	if device == nil {
		return nil, errors.New("card: nil device")
	}

	p := DefaultPolicy()
	if policy != nil {
		p = *policy
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		device: device,
		policy: p,
		clk:    clock.System(),
		log:    logrus.New(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Policy returns the policy the service runs with.
func (s *Service) Policy() Policy {
	return s.policy
}

// ReadID polls for a card and returns its canonical identifier. The
// card is left selected, not halted, so a write command that follows
// immediately does not race a re-detection; only the crypto session is
// terminated.
func (s *Service) ReadID(ctx context.Context) (string, error) {
	detected, err := s.detect(ctx)
	if err != nil {
		return "", err
	}

	if err := s.device.StopCrypto(); err != nil {
		s.log.Warnf("card: stop crypto after read: %v", err)
	}

	id := CanonicalID(detected.UID)
	s.log.Debugf("card: read id %s", id)
	return id, nil
}

// ReadRecord detects a card, authenticates both record blocks and
// returns the decoded record with the card's canonical identifier.
// Unlike ReadID the card is halted afterwards: callers of this are
// diagnostic flows, not a write about to follow.
func (s *Service) ReadRecord(ctx context.Context) (Record, string, error) {
	detected, err := s.detect(ctx)
	if err != nil {
		return Record{}, "", err
	}
	defer s.endSession()

	plate, err := s.authAndRead(ctx, detected.UID, s.policy.PlateBlock)
	if err != nil {
		return Record{}, "", fmt.Errorf("read plate block: %w", err)
	}
	balance, err := s.authAndRead(ctx, detected.UID, s.policy.BalanceBlock)
	if err != nil {
		return Record{}, "", fmt.Errorf("read balance block: %w", err)
	}

	return DecodeRecord(plate, balance), CanonicalID(detected.UID), nil
}

func (s *Service) authAndRead(ctx context.Context, uid []byte, block byte) ([]byte, error) {
	if err := s.device.Authenticate(ctx, rc522.KeyA, block, s.policy.Key, uid); err != nil {
		return nil, err
	}
	return s.device.ReadBlock(ctx, block)
}

// detect runs the bounded detection loop: one poll per attempt, a
// fixed delay in between, exactly MaxRetries polls when no card ever
// answers.
func (s *Service) detect(ctx context.Context) (*rc522.Card, error) {
	return retry.Do(ctx, s.clk, retry.Config{
		MaxAttempts: s.policy.MaxRetries,
		Delay:       s.policy.RetryDelay,
		Retryable:   detectRetryable,
		OnRetry: func(attempt int, err error) {
			s.log.Debugf("card: detection attempt %d/%d: %v", attempt, s.policy.MaxRetries, err)
		},
		Description: "card detection",
	}, func() (*rc522.Card, error) {
		return s.device.DetectCard(ctx)
	})
}

func detectRetryable(err error) bool {
	return errors.Is(err, rc522.ErrNoCard) || rc522.IsRetryable(err)
}

// endSession halts the card and terminates the crypto session so the
// reader is idle for the next command. Failures are logged, not
// returned: the next write reinitializes the reader anyway. Cleanup
// runs even when the operation's context is already cancelled.
func (s *Service) endSession() {
	if err := s.device.HaltCard(context.Background()); err != nil {
		s.log.Warnf("card: halt: %v", err)
	}
	if err := s.device.StopCrypto(); err != nil {
		s.log.Warnf("card: stop crypto: %v", err)
	}
}
