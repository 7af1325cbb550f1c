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

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GatectlProject/gatectl/internal/clock"
)

var errTransient = errors.New("transient fault")

func TestDoSucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	clk := clock.NewFake(time.Unix(0, 0))
	calls := 0
	result, err := Do(context.Background(), clk, Config{MaxAttempts: 5, Delay: 100 * time.Millisecond},
		func() (string, error) {
			calls++
			return "ok", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clk.Slept(), "no delay expected after immediate success")
}

func TestDoExhaustsExactAttemptCount(t *testing.T) {
	t.Parallel()

	clk := clock.NewFake(time.Unix(0, 0))
	calls := 0
	_, err := Do(context.Background(), clk, Config{MaxAttempts: 15, Delay: 400 * time.Millisecond},
		func() (struct{}, error) {
			calls++
			return struct{}{}, errTransient
		})

	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 15, calls, "operation must run exactly MaxAttempts times")
	assert.Len(t, clk.Slept(), 14, "delay happens between attempts, not after the last")
}

func TestDoSucceedsMidway(t *testing.T) {
	t.Parallel()

	clk := clock.NewFake(time.Unix(0, 0))
	calls := 0
	result, err := Do(context.Background(), clk, Config{MaxAttempts: 10, Delay: time.Second},
		func() (int, error) {
			calls++
			if calls < 4 {
				return 0, errTransient
			}
			return 42, nil
		})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 4, calls)
	assert.Len(t, clk.Slept(), 3)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	t.Parallel()

	permanent := errors.New("permanent fault")
	clk := clock.NewFake(time.Unix(0, 0))
	calls := 0
	_, err := Do(context.Background(), clk, Config{
		MaxAttempts: 10,
		Delay:       time.Second,
		Retryable:   func(err error) bool { return !errors.Is(err, permanent) },
	}, func() (struct{}, error) {
		calls++
		return struct{}{}, permanent
	})

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	clk := clock.NewFake(time.Unix(0, 0))
	calls := 0
	_, err := Do(ctx, clk, Config{MaxAttempts: 10, Delay: time.Second},
		func() (struct{}, error) {
			calls++
			cancel()
			return struct{}{}, errTransient
		})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "cancellation is observed before the next attempt")
}

func TestDoReportsRetries(t *testing.T) {
	t.Parallel()

	clk := clock.NewFake(time.Unix(0, 0))
	var reported []int
	_, err := Do(context.Background(), clk, Config{
		MaxAttempts: 3,
		Delay:       50 * time.Millisecond,
		OnRetry:     func(attempt int, _ error) { reported = append(reported, attempt) },
	}, func() (struct{}, error) {
		return struct{}{}, errTransient
	})

	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, []int{1, 2}, reported)
}

func TestDoRejectsInvalidAttempts(t *testing.T) {
	t.Parallel()

	clk := clock.NewFake(time.Unix(0, 0))
	_, err := Do(context.Background(), clk, Config{MaxAttempts: 0, Description: "probe"},
		func() (struct{}, error) { return struct{}{}, nil })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "probe")
}
