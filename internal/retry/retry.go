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

// Package retry provides a bounded fixed-delay retry helper shared by
// the card detection and transport layers.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/GatectlProject/gatectl/internal/clock"
)

// Config controls a bounded retry loop.
type Config struct {
	// MaxAttempts is the total number of calls to the operation. It
	// must be at least 1.
	MaxAttempts int

	// Delay is slept between attempts, never after the last one.
	Delay time.Duration

	// Retryable decides whether an error is worth another attempt.
	// A nil Retryable retries every error.
	Retryable func(error) bool

	// OnRetry is called before each sleep with the attempt number
	// (1-based) and the error that caused the retry.
	OnRetry func(attempt int, err error)

	// Description names the operation in error messages.
	Description string
}

// Do runs operation up to cfg.MaxAttempts times, sleeping cfg.Delay on
// the given clock between attempts. It returns the first successful
// result, or the last error once attempts are exhausted, a
// non-retryable error occurs, or ctx is cancelled between attempts.
func Do[T any](ctx context.Context, clk clock.Clock, cfg Config, operation func() (T, error)) (T, error) {
	var zero T
	if cfg.MaxAttempts < 1 {
		return zero, fmt.Errorf("retry %s: invalid MaxAttempts %d", cfg.Description, cfg.MaxAttempts)
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := operation()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if cfg.Retryable != nil && !cfg.Retryable(err) {
			break
		}
		if attempt == cfg.MaxAttempts {
			break
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}
		clk.Sleep(cfg.Delay)
	}
	return zero, lastErr
}
