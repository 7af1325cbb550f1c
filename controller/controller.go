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

// Package controller runs the main loop of the gate: it polls the host
// link for commands, dispatches them to the card service and the gate
// supervisor, and watches the lane sensor for cars arriving, leaving
// and overstaying the hold window.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"

	"github.com/GatectlProject/gatectl/card"
	"github.com/GatectlProject/gatectl/hostlink"
	"github.com/GatectlProject/gatectl/internal/clock"
	"github.com/GatectlProject/gatectl/rc522"
	"github.com/GatectlProject/gatectl/sensor"
)

// CardService is the card transaction surface the controller drives.
type CardService interface {
	ReadID(ctx context.Context) (string, error)
	WriteRecord(ctx context.Context, id string, rec card.Record) (card.Status, error)
}

// Gate is the gate supervisor surface the controller drives.
type Gate interface {
	Open(ctx context.Context, now time.Time) error
	Close(ctx context.Context) error
	Alert(now time.Time) error
	Tick(ctx context.Context, presence bool, now time.Time) (bool, error)
}

// Config holds the control loop settings.
type Config struct {
	// PollInterval paces the loop between host polls.
	PollInterval time.Duration

	// PresenceThreshold is the lane distance at or under which a car
	// counts as present. Zero selects the sensor default.
	PresenceThreshold physic.Distance
}

// DefaultConfig returns the deployed loop settings.
func DefaultConfig() Config {
	return Config{PollInterval: 50 * time.Millisecond}
}

// Controller owns the main loop. Serial link failures end the loop;
// gate hardware failures are logged and the host is answered anyway,
// because a dead LED must not take the lane out of service.
type Controller struct {
	link     *hostlink.Link
	cards    CardService
	gate     Gate
	ranger   sensor.Ranger
	detector *sensor.Detector
	clk      clock.Clock
	log      *logrus.Logger
	interval time.Duration
}

// Option adjusts a Controller under construction.
type Option func(*Controller) error

// WithClock substitutes the time source.
func WithClock(clk clock.Clock) Option {
	return func(c *Controller) error {
		if clk == nil {
			return errors.New("controller: nil clock")
		}
		c.clk = clk
		return nil
	}
}

// WithLogger substitutes the logger.
func WithLogger(log *logrus.Logger) Option {
	return func(c *Controller) error {
		if log == nil {
			return errors.New("controller: nil logger")
		}
		c.log = log
		return nil
	}
}

// New wires a controller. The lane detector is built here so that car
// arrived and left notices flow out through the host link.
func New(link *hostlink.Link, cards CardService, gate Gate, ranger sensor.Ranger, cfg Config, opts ...Option) (*Controller, error) {
	if link == nil {
		return nil, errors.New("controller: nil link")
	}
	if cards == nil {
		return nil, errors.New("controller: nil card service")
	}
	if gate == nil {
		return nil, errors.New("controller: nil gate")
	}
	if ranger == nil {
		return nil, errors.New("controller: nil ranger")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}

	c := &Controller{
		link:     link,
		cards:    cards,
		gate:     gate,
		ranger:   ranger,
		clk:      clock.System(),
		log:      logrus.New(),
		interval: cfg.PollInterval,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.detector = sensor.NewDetector(cfg.PresenceThreshold,
		func() error { return c.link.Notify(hostlink.NoticeCarDetected) },
		func() error { return c.link.Notify(hostlink.NoticeCarLeft) },
	)
	return c, nil
}

// Run drives the loop until ctx is cancelled or the host link fails.
// Cancellation is a clean shutdown and returns nil.
func (c *Controller) Run(ctx context.Context) error {
	c.log.Info("controller: serving host commands")
	for {
		if ctx.Err() != nil {
			c.log.Info("controller: shutting down")
			return nil
		}
		if err := c.step(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.log.Info("controller: shutting down")
				return nil
			}
			return err
		}
		c.clk.Sleep(c.interval)
	}
}

// step runs one loop iteration: at most one host command, then one
// pass over the lane sensor and the gate timers.
func (c *Controller) step(ctx context.Context) error {
	line, ok, err := c.link.Poll()
	if err != nil {
		return fmt.Errorf("controller: poll host: %w", err)
	}
	if ok {
		if err := c.dispatch(ctx, line); err != nil {
			return err
		}
	}
	return c.observe(ctx)
}

func (c *Controller) dispatch(ctx context.Context, line string) error {
	cmd, err := hostlink.Parse(line)
	if err != nil {
		c.log.Warnf("controller: %v", err)
		return c.finish(c.link.Respond(hostlink.RejectWord(err)))
	}
	c.log.Debugf("controller: dispatch %s", cmd.Kind)

	switch cmd.Kind {
	case hostlink.KindRead:
		return c.finish(c.handleRead(ctx))
	case hostlink.KindWrite:
		return c.finish(c.handleWrite(ctx, cmd))
	case hostlink.KindOpenGate:
		return c.finish(c.handleOpenGate(ctx))
	case hostlink.KindCloseGate:
		return c.finish(c.handleCloseGate(ctx))
	case hostlink.KindAlert:
		return c.finish(c.handleAlert())
	}
	return nil
}

// finish discards whatever input piled up while a command was being
// handled. The host speaks in lockstep, so queued lines are stale.
func (c *Controller) finish(err error) error {
	if err != nil {
		return err
	}
	if err := c.link.DiscardPending(); err != nil {
		return fmt.Errorf("controller: discard stale input: %w", err)
	}
	return nil
}

func (c *Controller) handleRead(ctx context.Context) error {
	id, err := c.cards.ReadID(ctx)
	switch {
	case err == nil:
		return c.link.Respond(id)
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, rc522.ErrNoCard):
		return c.link.Respond(hostlink.WordNoCard)
	default:
		// The host only understands an id or NO_CARD, so a broken
		// reader reads as an empty field.
		c.log.Warnf("controller: read card: %v", err)
		return c.link.Respond(hostlink.WordNoCard)
	}
}

func (c *Controller) handleWrite(ctx context.Context, cmd hostlink.Command) error {
	status, err := c.cards.WriteRecord(ctx, cmd.TargetID, cmd.Record)
	if err != nil {
		return err
	}
	return c.link.Respond(hostlink.StatusWord(status))
}

func (c *Controller) handleOpenGate(ctx context.Context) error {
	if err := c.gate.Open(ctx, c.clk.Now()); err != nil {
		c.log.Errorf("controller: open gate: %v", err)
	}
	return c.link.Notify(hostlink.NoticeGateOpen)
}

func (c *Controller) handleCloseGate(ctx context.Context) error {
	if err := c.gate.Close(ctx); err != nil {
		c.log.Errorf("controller: close gate: %v", err)
	}
	return c.link.Notify(hostlink.NoticeGateClosed)
}

func (c *Controller) handleAlert() error {
	if err := c.gate.Alert(c.clk.Now()); err != nil {
		c.log.Errorf("controller: alert: %v", err)
	}
	return c.link.Notify(hostlink.NoticeAlertSounded)
}

// observe reads the lane once and advances the gate timers.
func (c *Controller) observe(ctx context.Context) error {
	dist, err := c.ranger.Distance()
	switch {
	case err == nil:
		if err := c.detector.Update(dist); err != nil {
			return fmt.Errorf("controller: presence notice: %w", err)
		}
	case errors.Is(err, sensor.ErrNoEcho):
		// Nothing in range reflects nothing. That is a reading of an
		// empty lane, not a fault.
		if err := c.detector.Update(sensor.MaxRange); err != nil {
			return fmt.Errorf("controller: presence notice: %w", err)
		}
	default:
		c.log.Warnf("controller: range lane: %v", err)
	}

	autoClosed, err := c.gate.Tick(ctx, c.detector.Present(), c.clk.Now())
	if err != nil {
		c.log.Errorf("controller: gate tick: %v", err)
	}
	if autoClosed {
		return c.link.Notify(hostlink.NoticeAutoClose)
	}
	return nil
}
