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

// Package cardtest simulates an MFRC522 with a card in its field at
// the register level, so the whole card stack can be tested against
// realistic chip behavior without hardware.
package cardtest

import (
	"bytes"
	"sync"

	"github.com/GatectlProject/gatectl/rc522"
)

// Register addresses and protocol bytes mirrored from the driver. The
// simulator keeps its own copy so driver internals stay unexported.
const (
	regCommand    = 0x01
	regComIrq     = 0x04
	regDivIrq     = 0x05
	regStatus2    = 0x08
	regFIFOData   = 0x09
	regFIFOLevel  = 0x0A
	regControl    = 0x0C
	regBitFraming = 0x0D
	regTxControl  = 0x14
	regCRCResultH = 0x21
	regCRCResultL = 0x22
	regVersion    = 0x37

	cmdIdle       = 0x00
	cmdCalcCRC    = 0x03
	cmdTransceive = 0x0C
	cmdMFAuthent  = 0x0E
	cmdSoftReset  = 0x0F

	irqTimer = 0x01
	irqIdle  = 0x10
	irqRx    = 0x20

	divIrqCRC = 0x04

	status2Crypto1On = 0x08

	piccREQA    = 0x26
	piccWUPA    = 0x52
	piccCT      = 0x88
	piccSelCL1  = 0x93
	piccSelCL2  = 0x95
	piccHaltA   = 0x50
	piccMFRead  = 0x30
	piccMFWrite = 0xA0

	ackCode = 0x0A
	nakCode = 0x04
)

// SimBus simulates the MFRC522 register file wired to at most one
// VirtualCard. It implements rc522.Transport with per-byte FIFO access
// and plays card exchanges synchronously when the driver pulls the
// StartSend trigger.
type SimBus struct {
	card *VirtualCard
	regs [0x40]byte
	fifo []byte

	authed    bool
	authBlock byte
	await     awaitState

	// Counters for exact retry and cleanup assertions.
	Wakeups int
	Auths   int
	Reads   int
	Writes  int
	Halts   int
	Resets  int

	mu     sync.Mutex
	closed bool
}

// awaitState tracks a two-step MIFARE write between frames.
type awaitState struct {
	active bool
	block  byte
}

// NewSimBus creates a simulator with card in the field. A nil card
// simulates an empty field.
func NewSimBus(card *VirtualCard) *SimBus {
	s := &SimBus{card: card}
	s.regs[regVersion] = 0x92
	return s
}

// AttachCard replaces the card in the field.
func (s *SimBus) AttachCard(card *VirtualCard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.card = card
}

// ReadRegister implements rc522.Transport.
func (s *SimBus) ReadRegister(reg byte) (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, rc522.NewNotReadyError("read", "sim")
	}
	switch reg {
	case regFIFOData:
		if len(s.fifo) == 0 {
			return 0, nil
		}
		value := s.fifo[0]
		s.fifo = s.fifo[1:]
		return value, nil
	case regFIFOLevel:
		return byte(len(s.fifo)), nil
	default:
		return s.regs[reg&0x3F], nil
	}
}

// WriteRegister implements rc522.Transport.
func (s *SimBus) WriteRegister(reg, value byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return rc522.NewNotReadyError("write", "sim")
	}
	switch reg {
	case regCommand:
		s.execCommand(value)
	case regComIrq, regDivIrq:
		// Bit 7 selects set (1) or clear (0) for the masked bits.
		if value&0x80 != 0 {
			s.regs[reg] |= value & 0x7F
		} else {
			s.regs[reg] &^= value & 0x7F
		}
	case regFIFOLevel:
		if value&0x80 != 0 {
			s.fifo = nil
		}
	case regFIFOData:
		s.fifo = append(s.fifo, value)
	case regBitFraming:
		s.regs[regBitFraming] = value
		if value&0x80 != 0 && s.regs[regCommand] == cmdTransceive {
			s.execTransceive(value & 0x07)
		}
	case regStatus2:
		s.regs[regStatus2] = value
		if value&status2Crypto1On == 0 {
			s.authed = false
		}
	case regTxControl:
		// Dropping the field resets every card in it.
		if value&0x03 == 0 && s.card != nil {
			s.card.Halted = false
			s.authed = false
			s.regs[regStatus2] &^= status2Crypto1On
		}
		s.regs[regTxControl] = value
	default:
		s.regs[reg&0x3F] = value
	}
	return nil
}

// Close implements rc522.Transport.
func (s *SimBus) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// IsConnected implements rc522.Transport.
func (s *SimBus) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// Type implements rc522.Transport.
func (*SimBus) Type() rc522.TransportType {
	return rc522.TransportMock
}

// Authenticated reports whether the simulated crypto unit is engaged.
func (s *SimBus) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authed
}

func (s *SimBus) execCommand(value byte) {
	switch value {
	case cmdSoftReset:
		s.reset()
	case cmdCalcCRC:
		lo, hi := crcA(s.fifo)
		s.fifo = nil
		s.regs[regCRCResultL] = lo
		s.regs[regCRCResultH] = hi
		s.regs[regDivIrq] |= divIrqCRC
		s.regs[regCommand] = cmdIdle
	case cmdMFAuthent:
		s.execAuth()
	default:
		s.regs[regCommand] = value
	}
}

func (s *SimBus) reset() {
	s.Resets++
	version := s.regs[regVersion]
	s.regs = [0x40]byte{}
	s.regs[regVersion] = version
	s.fifo = nil
	s.authed = false
	s.await = awaitState{}
	if s.card != nil {
		// The reset drops the TX drivers, so the field collapses and
		// the card loses its halted state.
		s.card.Halted = false
	}
}

func (s *SimBus) execAuth() {
	s.Auths++
	frame := s.fifo
	s.fifo = nil
	s.regs[regCommand] = cmdIdle

	card := s.card
	if card == nil || !card.Present || len(frame) != 12 {
		s.regs[regComIrq] |= irqTimer
		return
	}

	var want []byte
	switch frame[0] {
	case 0x60:
		want = card.KeyA[:]
	case 0x61:
		want = card.KeyB[:]
	default:
		s.regs[regComIrq] |= irqTimer
		return
	}

	if !bytes.Equal(frame[2:8], want) || !bytes.Equal(frame[8:12], card.uidTail()) {
		// Crypto1 fails silently; only the reader watchdog notices.
		s.regs[regComIrq] |= irqTimer
		return
	}

	s.authed = true
	s.authBlock = frame[1]
	s.regs[regStatus2] |= status2Crypto1On
	s.regs[regComIrq] |= irqIdle
}

func (s *SimBus) execTransceive(txLastBits byte) {
	frame := s.fifo
	s.fifo = nil
	s.regs[regCommand] = cmdIdle

	response, rxBits, answered := s.exchange(frame, txLastBits)
	if !answered {
		s.regs[regComIrq] |= irqTimer
		return
	}

	s.fifo = response
	s.regs[regControl] = rxBits & 0x07
	s.regs[regComIrq] |= irqRx | irqIdle
}

// exchange plays the card side of one RF frame. answered reports
// whether the field carried a response; false leaves the reader to its
// watchdog timeout.
func (s *SimBus) exchange(frame []byte, txLastBits byte) (response []byte, rxBits byte, answered bool) {
	card := s.card

	// 7-bit short frames are wake-up probes.
	if txLastBits == 7 && len(frame) == 1 {
		s.Wakeups++
		if card == nil || !card.Present {
			return nil, 0, false
		}
		if card.probesToSkip > 0 {
			card.probesToSkip--
			return nil, 0, false
		}
		switch frame[0] {
		case piccWUPA:
			// Wakes idle and halted cards alike.
		case piccREQA:
			if card.Halted {
				return nil, 0, false
			}
		default:
			return nil, 0, false
		}
		return []byte{card.atqa[0], card.atqa[1]}, 0, true
	}

	if card == nil || !card.Present {
		return nil, 0, false
	}

	// A write command was acknowledged: this frame is the payload.
	if s.await.active {
		block := s.await.block
		s.await = awaitState{}
		if len(frame) != 18 || !verifyCRCA(frame) || card.RefuseData {
			return []byte{nakCode}, 4, true
		}
		copy(card.Blocks[block][:], frame[:16])
		s.Writes++
		return []byte{ackCode}, 4, true
	}

	if len(frame) < 2 {
		return nil, 0, false
	}

	switch frame[0] {
	case piccSelCL1, piccSelCL2:
		return s.exchangeSelect(frame)
	case piccHaltA:
		if len(frame) == 4 && frame[1] == 0x00 && verifyCRCA(frame) {
			s.Halts++
			card.Halted = true
		}
		return nil, 0, false
	case piccMFRead:
		return s.exchangeRead(frame)
	case piccMFWrite:
		return s.exchangeWriteCommand(frame)
	}
	return nil, 0, false
}

func (s *SimBus) exchangeSelect(frame []byte) ([]byte, byte, bool) {
	card := s.card
	part := card.cascadePart(frame[0])
	if part == nil {
		return nil, 0, false
	}
	bcc := part[0] ^ part[1] ^ part[2] ^ part[3]

	if len(frame) == 2 && frame[1] == 0x20 {
		return append(append([]byte(nil), part...), bcc), 0, true
	}

	if len(frame) == 9 && frame[1] == 0x70 && verifyCRCA(frame) {
		if !bytes.Equal(frame[2:6], part) || frame[6] != bcc {
			return nil, 0, false
		}
		response := []byte{card.sak(frame[0])}
		lo, hi := crcA(response)
		return append(response, lo, hi), 0, true
	}

	return nil, 0, false
}

func (s *SimBus) exchangeRead(frame []byte) ([]byte, byte, bool) {
	if len(frame) != 4 || !verifyCRCA(frame) {
		return nil, 0, false
	}
	block := frame[1]
	if !s.authedFor(block) {
		return nil, 0, false
	}
	s.Reads++

	response := append([]byte(nil), s.card.Blocks[block][:]...)
	lo, hi := crcA(response)
	return append(response, lo, hi), 0, true
}

func (s *SimBus) exchangeWriteCommand(frame []byte) ([]byte, byte, bool) {
	if len(frame) != 4 || !verifyCRCA(frame) {
		return nil, 0, false
	}
	block := frame[1]
	if !s.authedFor(block) {
		return nil, 0, false
	}
	if s.card.RefuseWrites[block] {
		return []byte{nakCode}, 4, true
	}
	s.await = awaitState{active: true, block: block}
	return []byte{ackCode}, 4, true
}

// authedFor reports whether the crypto unit covers block's sector.
func (s *SimBus) authedFor(block byte) bool {
	return s.authed && int(block) < len(s.card.Blocks) && s.authBlock/4 == block/4
}
