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

package controller

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	"github.com/GatectlProject/gatectl/card"
	"github.com/GatectlProject/gatectl/gate"
	"github.com/GatectlProject/gatectl/hostlink"
	"github.com/GatectlProject/gatectl/internal/cardtest"
	"github.com/GatectlProject/gatectl/internal/clock"
	"github.com/GatectlProject/gatectl/rc522"
	"github.com/GatectlProject/gatectl/sensor"
)

type stubActuator struct {
	opens  int
	closes int
}

func (a *stubActuator) Open() error  { a.opens++; return nil }
func (a *stubActuator) Close() error { a.closes++; return nil }

type stubLights struct {
	granted bool
}

func (l *stubLights) AccessGranted() error { l.granted = true; return nil }
func (l *stubLights) AccessDenied() error  { l.granted = false; return nil }

type stubSounder struct {
	on bool
}

func (s *stubSounder) On() error  { s.on = true; return nil }
func (s *stubSounder) Off() error { s.on = false; return nil }

type fakeRanger struct {
	dist physic.Distance
	err  error
}

func (r *fakeRanger) Distance() (physic.Distance, error) { return r.dist, r.err }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// rig is a whole controller wired to simulated hardware: a real link
// over a mock serial port, a real card service over a simulated bus, a
// real supervisor over stub gate parts, all on one fake clock.
type rig struct {
	t       *testing.T
	ctrl    *Controller
	port    *hostlink.MockPort
	bus     *cardtest.SimBus
	virtual *cardtest.VirtualCard
	clk     *clock.Fake
	ranger  *fakeRanger
	act     *stubActuator
	snd     *stubSounder
	sup     *gate.Supervisor
}

func newRig(t *testing.T, virtual *cardtest.VirtualCard) *rig {
	t.Helper()

	bus := cardtest.NewSimBus(virtual)
	clk := clock.NewFake(time.Unix(0, 0))

	device, err := rc522.New(bus, rc522.WithClock(clk))
	require.NoError(t, err)
	require.NoError(t, device.Init(context.Background()))

	svc, err := card.NewService(device, nil, card.WithClock(clk), card.WithLogger(quietLogger()))
	require.NoError(t, err)

	port := hostlink.NewMockPort()
	link, err := hostlink.NewLink(port, 50*time.Millisecond, quietLogger())
	require.NoError(t, err)

	act := &stubActuator{}
	snd := &stubSounder{}
	sup, err := gate.NewSupervisor(act, &stubLights{}, snd, gate.Config{}, quietLogger())
	require.NoError(t, err)

	ranger := &fakeRanger{dist: 2 * physic.Metre}

	ctrl, err := New(link, svc, sup, ranger, Config{}, WithClock(clk), WithLogger(quietLogger()))
	require.NoError(t, err)

	return &rig{
		t:       t,
		ctrl:    ctrl,
		port:    port,
		bus:     bus,
		virtual: virtual,
		clk:     clk,
		ranger:  ranger,
		act:     act,
		snd:     snd,
		sup:     sup,
	}
}

func (r *rig) step() {
	r.t.Helper()
	require.NoError(r.t, r.ctrl.step(context.Background()))
}

// command pushes one host line and runs one loop iteration.
func (r *rig) command(line string) {
	r.t.Helper()
	r.port.Push(line + "\n")
	r.step()
}

func (r *rig) output() string {
	return r.port.TakeOutput()
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K(nil))
	link, err := hostlink.NewLink(hostlink.NewMockPort(), time.Millisecond, quietLogger())
	require.NoError(t, err)

	_, err = New(nil, r.ctrl.cards, r.sup, r.ranger, Config{})
	require.Error(t, err)

	_, err = New(link, nil, r.sup, r.ranger, Config{})
	require.Error(t, err)

	_, err = New(link, r.ctrl.cards, nil, r.ranger, Config{})
	require.Error(t, err)

	_, err = New(link, r.ctrl.cards, r.sup, nil, Config{})
	require.Error(t, err)

	_, err = New(link, r.ctrl.cards, r.sup, r.ranger, Config{}, WithClock(nil))
	require.Error(t, err)
}

func TestController_ReadCommand(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K([]byte{0x1A, 0x2B, 0x3C, 0x4D}))

	r.command("READ")
	assert.Equal(t, "1A2B3C4D<END>\n", r.output())
	assert.False(t, r.virtual.Halted, "a read must leave the card selected for a follow-up write")
}

func TestController_ReadCommand_NoCard(t *testing.T) {
	t.Parallel()

	virtual := cardtest.NewClassic1K(nil)
	virtual.Remove()
	r := newRig(t, virtual)

	r.command("READ")
	assert.Equal(t, "NO_CARD<END>\n", r.output())
	assert.Equal(t, 15, r.bus.Wakeups, "the whole detection budget must be spent before giving up")
}

func TestController_ReadCommand_ReaderFault(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K(nil))
	require.NoError(t, r.bus.Close())

	r.command("READ")
	assert.Equal(t, "NO_CARD<END>\n", r.output())
}

func TestController_WriteCommand(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K(nil))

	r.command("WRITE,DEADBEEF,RAB123C,1500")
	assert.Equal(t, "WRITE_SUCCESS<END>\n", r.output())
	assert.True(t, bytes.HasPrefix(r.virtual.Blocks[4][:], []byte("RAB123C")))
	assert.True(t, bytes.HasPrefix(r.virtual.Blocks[5][:], []byte("1500")))
	assert.True(t, r.virtual.Halted, "the card must be parked after the transaction")
}

func TestController_WriteCommand_Mismatch(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K(nil))

	r.command("WRITE,CAFEBABE,RAB123C,1500")
	assert.Equal(t, "CARD_MISMATCH<END>\n", r.output())
	assert.Equal(t, 0, r.bus.Writes, "a mismatched card must not be touched")
}

func TestController_WriteCommand_NoCard(t *testing.T) {
	t.Parallel()

	virtual := cardtest.NewClassic1K(nil)
	virtual.Remove()
	r := newRig(t, virtual)

	r.command("WRITE,1A2B3C4D,ABC123,50.00")
	assert.Equal(t, "NO_CARD<END>\n", r.output())
	assert.Equal(t, 15, r.bus.Wakeups, "the whole detection budget must be spent before giving up")
}

func TestController_WriteCommand_Rejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want string
	}{
		{"Missing_Fields", "WRITE,DEADBEEF", "INVALID_WRITE_FORMAT<END>\n"},
		{"Short_ID", "WRITE,ABC,RAB123C,1500", "INVALID_WRITE_DATA<END>\n"},
		{"Empty_Plate", "WRITE,DEADBEEF,,1500", "INVALID_WRITE_DATA<END>\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newRig(t, cardtest.NewClassic1K(nil))
			r.command(tt.line)
			assert.Equal(t, tt.want, r.output())
			assert.Equal(t, 0, r.bus.Wakeups, "rejected writes must never reach the reader")
		})
	}
}

func TestController_WriteCommand_CancelledContext(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K(nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r.port.Push("WRITE,DEADBEEF,RAB123C,1500\n")
	err := r.ctrl.step(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.output(), "a cancelled transaction must not answer the host")
}

func TestController_UnknownCommand(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K(nil))

	r.command("FLY")
	assert.Equal(t, "UNKNOWN_COMMAND<END>\n", r.output())
}

func TestController_OpenGate(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K(nil))

	r.command("OPEN_GATE")
	assert.Equal(t, "GATE_OPEN\n", r.output())
	assert.True(t, r.sup.IsOpen())
	assert.Equal(t, 1, r.act.opens)

	// GRANT is the same command under its access-control alias, and
	// repeating it extends the hold instead of redriving the arm.
	r.command("GRANT")
	assert.Equal(t, "GATE_OPEN\n", r.output())
	assert.Equal(t, 1, r.act.opens)
}

func TestController_CloseGate(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K(nil))

	r.command("OPEN_GATE")
	r.output()

	r.command("CLOSE_GATE")
	assert.Equal(t, "GATE_CLOSED\n", r.output())
	assert.False(t, r.sup.IsOpen())

	r.command("DENY")
	assert.Equal(t, "GATE_CLOSED\n", r.output())
}

func TestController_Alert(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K(nil))

	r.command("ALERT")
	assert.Equal(t, "ALERT_SOUNDED\n", r.output())
	assert.True(t, r.snd.on)

	r.clk.Advance(3 * time.Second)
	r.step()
	assert.False(t, r.snd.on, "the alert must end on its own")
}

func TestController_AutoClose(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K(nil))

	r.command("OPEN_GATE")
	r.output()

	r.clk.Advance(9 * time.Second)
	r.step()
	assert.Empty(t, r.output())
	assert.True(t, r.sup.IsOpen())

	r.clk.Advance(time.Second + time.Millisecond)
	r.step()
	assert.Equal(t, "GATE_AUTO_CLOSE\n", r.output())
	assert.False(t, r.sup.IsOpen())

	// The notice fires once; later quiet ticks stay quiet.
	r.step()
	assert.Empty(t, r.output())
}

func TestController_PresenceExtendsHold(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K(nil))

	r.command("OPEN_GATE")
	r.output()

	r.ranger.dist = 300 * physic.MilliMetre
	r.step()
	assert.Equal(t, "CAR_DETECTED\n", r.output())

	// The car sits under the sensor past the original deadline.
	r.clk.Advance(9 * time.Second)
	r.step()
	assert.Empty(t, r.output())

	r.ranger.dist = 2 * physic.Metre
	r.step()
	assert.Equal(t, "CAR_LEFT\n", r.output())
	assert.True(t, r.sup.IsOpen(), "departure restarts the hold window")

	r.clk.Advance(10*time.Second + time.Millisecond)
	r.step()
	assert.Equal(t, "GATE_AUTO_CLOSE\n", r.output())
}

func TestController_CarEventsWithClosedGate(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K(nil))

	r.ranger.dist = 400 * physic.MilliMetre
	r.step()
	assert.Equal(t, "CAR_DETECTED\n", r.output())

	r.ranger.dist = 3 * physic.Metre
	r.step()
	assert.Equal(t, "CAR_LEFT\n", r.output())
	assert.False(t, r.sup.IsOpen())
}

func TestController_NoEchoReadsAsEmptyLane(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K(nil))

	r.ranger.dist = 300 * physic.MilliMetre
	r.step()
	assert.Equal(t, "CAR_DETECTED\n", r.output())

	r.ranger.err = sensor.ErrNoEcho
	r.step()
	assert.Equal(t, "CAR_LEFT\n", r.output())
}

func TestController_SensorFaultKeepsLastState(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K(nil))

	r.ranger.dist = 300 * physic.MilliMetre
	r.step()
	r.output()

	r.ranger.err = errors.New("echo pin wedged")
	r.step()
	assert.Empty(t, r.output(), "a sensor fault is not a departure")
	assert.True(t, r.ctrl.detector.Present())
}

func TestController_StaleInputDiscarded(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K(nil))

	// Both lines arrive before the first is handled. The protocol is
	// lockstep, so the queued GRANT is stale and must be dropped.
	r.port.Push("READ\nGRANT\n")
	r.step()
	assert.Equal(t, "DEADBEEF<END>\n", r.output())

	r.step()
	assert.Empty(t, r.output())
	assert.False(t, r.sup.IsOpen(), "the discarded GRANT must not open the gate")
	assert.GreaterOrEqual(t, r.port.InputResets(), 1)
}

func TestController_SerialWriteFailureIsFatal(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K(nil))
	r.port.WriteErr = errors.New("tty gone")

	r.port.Push("READ\n")
	err := r.ctrl.step(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serial write")
}

func TestController_Run_StopsOnCancel(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K(nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, r.ctrl.Run(ctx))
}

func TestController_Run_ReturnsSerialError(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K(nil))
	r.port.ReadErr = errors.New("tty gone")

	err := r.ctrl.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll host")
}

// TestController_Session walks the host's usual entry sequence against
// one card: identify it, top up its record, let the car through.
func TestController_Session(t *testing.T) {
	t.Parallel()

	r := newRig(t, cardtest.NewClassic1K([]byte{0x0B, 0xAD, 0xF0, 0x0D}))

	r.command("READ")
	assert.Equal(t, "0BADF00D<END>\n", r.output())

	r.command("WRITE,0BADF00D,GA-321-XY,2750")
	assert.Equal(t, "WRITE_SUCCESS<END>\n", r.output())

	r.command("GRANT")
	assert.Equal(t, "GATE_OPEN\n", r.output())

	r.ranger.dist = 250 * physic.MilliMetre
	r.step()
	assert.Equal(t, "CAR_DETECTED\n", r.output())

	r.ranger.dist = 3 * physic.Metre
	r.step()
	assert.Equal(t, "CAR_LEFT\n", r.output())

	r.clk.Advance(10*time.Second + time.Millisecond)
	r.step()
	assert.Equal(t, "GATE_AUTO_CLOSE\n", r.output())
	assert.False(t, r.sup.IsOpen())
}
