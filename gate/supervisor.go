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

// Package gate owns the physical gate: the arm actuator, the indicator
// lights and the warning buzzer, ruled by a two-state machine with a
// presence-driven auto-close timeout.
package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/looplab/fsm"
	"github.com/sirupsen/logrus"
)

// Gate states.
const (
	StateClosed = "closed"
	StateOpen   = "open"
)

// State machine events. auto_close is separate from close so the two
// reasons for closing stay distinguishable in logs and callbacks.
const (
	eventOpen      = "open"
	eventClose     = "close"
	eventAutoClose = "auto_close"
)

// Actuator drives the gate arm between its two positions.
type Actuator interface {
	Open() error
	Close() error
}

// Lights signals the access decision to the driver.
type Lights interface {
	AccessGranted() error
	AccessDenied() error
}

// Sounder is the warning buzzer.
type Sounder interface {
	On() error
	Off() error
}

// Config holds the supervisor's timing constants.
type Config struct {
	// HoldTimeout closes an open gate when presence has not been
	// seen for this long.
	HoldTimeout time.Duration

	// AlertDuration is how long the warning buzzer sounds.
	AlertDuration time.Duration
}

// DefaultConfig returns the deployed gate timings.
func DefaultConfig() Config {
	return Config{
		HoldTimeout:   10 * time.Second,
		AlertDuration: 3 * time.Second,
	}
}

// Supervisor owns gate state. The actuator and lights are driven only
// from its state machine callbacks, so their physical position always
// matches the machine's state. Not safe for concurrent use; the
// control loop is its only caller.
type Supervisor struct {
	machine  *fsm.FSM
	actuator Actuator
	lights   Lights
	sounder  Sounder
	log      *logrus.Logger

	holdTimeout   time.Duration
	alertDuration time.Duration

	lastPresence time.Time
	alertUntil   time.Time
	alerting     bool
}

// NewSupervisor builds a supervisor and drives the hardware to the
// boot state: gate closed, denied light on, buzzer silent.
func NewSupervisor(actuator Actuator, lights Lights, sounder Sounder, cfg Config, log *logrus.Logger) (*Supervisor, error) {
	if actuator == nil || lights == nil || sounder == nil {
		return nil, errors.New("gate: nil hardware")
	}
	if log == nil {
		log = logrus.New()
	}
	if cfg.HoldTimeout <= 0 {
		cfg.HoldTimeout = DefaultConfig().HoldTimeout
	}
	if cfg.AlertDuration <= 0 {
		cfg.AlertDuration = DefaultConfig().AlertDuration
	}

	s := &Supervisor{
		actuator:      actuator,
		lights:        lights,
		sounder:       sounder,
		log:           log,
		holdTimeout:   cfg.HoldTimeout,
		alertDuration: cfg.AlertDuration,
	}

	s.machine = fsm.NewFSM(
		StateClosed,
		fsm.Events{
			{Name: eventOpen, Src: []string{StateClosed}, Dst: StateOpen},
			{Name: eventClose, Src: []string{StateOpen}, Dst: StateClosed},
			{Name: eventAutoClose, Src: []string{StateOpen}, Dst: StateClosed},
		},
		fsm.Callbacks{
			"enter_" + StateOpen: func(_ context.Context, e *fsm.Event) {
				e.Err = s.driveOpen()
			},
			"enter_" + StateClosed: func(_ context.Context, e *fsm.Event) {
				e.Err = s.driveClosed()
			},
			"enter_state": func(_ context.Context, e *fsm.Event) {
				s.log.Debugf("gate: %s -> %s on %s", e.Src, e.Dst, e.Event)
			},
		},
	)

	// The machine starts in closed without firing callbacks; put the
	// hardware there explicitly.
	if err := s.driveClosed(); err != nil {
		return nil, err
	}
	if err := s.sounder.Off(); err != nil {
		return nil, fmt.Errorf("silence buzzer: %w", err)
	}
	return s, nil
}

func (s *Supervisor) driveOpen() error {
	if err := s.actuator.Open(); err != nil {
		return fmt.Errorf("actuator open: %w", err)
	}
	if err := s.lights.AccessGranted(); err != nil {
		return fmt.Errorf("granted lights: %w", err)
	}
	return nil
}

func (s *Supervisor) driveClosed() error {
	if err := s.actuator.Close(); err != nil {
		return fmt.Errorf("actuator close: %w", err)
	}
	if err := s.lights.AccessDenied(); err != nil {
		return fmt.Errorf("denied lights: %w", err)
	}
	return nil
}

// State returns the current state name.
func (s *Supervisor) State() string {
	return s.machine.Current()
}

// IsOpen reports whether the gate is open.
func (s *Supervisor) IsOpen() bool {
	return s.machine.Is(StateOpen)
}

// Open raises the gate and stamps the presence window. Opening an
// already open gate just restamps, so a repeated GRANT extends the
// hold instead of failing.
func (s *Supervisor) Open(ctx context.Context, now time.Time) error {
	s.lastPresence = now
	if s.machine.Is(StateOpen) {
		return nil
	}
	return s.machine.Event(ctx, eventOpen)
}

// Close lowers the gate on host request. Closing a closed gate is a
// no-op.
func (s *Supervisor) Close(ctx context.Context) error {
	if s.machine.Is(StateClosed) {
		return nil
	}
	return s.machine.Event(ctx, eventClose)
}

// Alert starts the warning buzzer. It stops on a later Tick once the
// alert window passes, so callers never block on it.
func (s *Supervisor) Alert(now time.Time) error {
	if err := s.sounder.On(); err != nil {
		return fmt.Errorf("sound alert: %w", err)
	}
	s.alerting = true
	s.alertUntil = now.Add(s.alertDuration)
	return nil
}

// Tick advances everything time does to the gate: presence refreshes
// the hold window, an expired window closes the gate, a finished alert
// silences the buzzer. autoClosed reports that this very tick closed
// the gate by timeout, which happens at most once per expiry.
func (s *Supervisor) Tick(ctx context.Context, presence bool, now time.Time) (autoClosed bool, err error) {
	if s.alerting && !now.Before(s.alertUntil) {
		s.alerting = false
		if soundErr := s.sounder.Off(); soundErr != nil {
			s.log.Warnf("gate: buzzer off: %v", soundErr)
		}
	}

	if !s.machine.Is(StateOpen) {
		return false, nil
	}
	if presence {
		s.lastPresence = now
		return false, nil
	}
	if now.Sub(s.lastPresence) <= s.holdTimeout {
		return false, nil
	}

	s.log.Infof("gate: no presence for %v, closing", s.holdTimeout)
	if err := s.machine.Event(ctx, eventAutoClose); err != nil {
		return true, err
	}
	return true, nil
}
