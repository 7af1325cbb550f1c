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

package rc522

import "sync"

// RegisterWrite records one register write observed by MockBus.
type RegisterWrite struct {
	Reg   byte
	Value byte
}

// MockBus is an in-memory Transport for tests. Registers act as plain
// storage by default; reads can be scripted per register to walk the
// device through multi-step chip behavior.
type MockBus struct {
	registers  map[byte]byte
	queued     map[byte][]byte
	readErr    map[byte]error
	writeErr   map[byte]error
	readCount  map[byte]int
	writeCount map[byte]int
	writes     []RegisterWrite
	mu         sync.Mutex
	closed     bool
}

// NewMockBus creates an empty MockBus.
func NewMockBus() *MockBus {
	return &MockBus{
		registers:  make(map[byte]byte),
		queued:     make(map[byte][]byte),
		readErr:    make(map[byte]error),
		writeErr:   make(map[byte]error),
		readCount:  make(map[byte]int),
		writeCount: make(map[byte]int),
	}
}

// ReadRegister returns the next scripted value for reg, or the stored
// register value when the script is exhausted.
func (m *MockBus) ReadRegister(reg byte) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, NewNotReadyError("read", "mock")
	}
	m.readCount[reg]++
	if err := m.readErr[reg]; err != nil {
		return 0, err
	}
	if queue := m.queued[reg]; len(queue) > 0 {
		value := queue[0]
		m.queued[reg] = queue[1:]
		return value, nil
	}
	return m.registers[reg], nil
}

// WriteRegister stores value and records the write.
func (m *MockBus) WriteRegister(reg, value byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return NewNotReadyError("write", "mock")
	}
	m.writeCount[reg]++
	if err := m.writeErr[reg]; err != nil {
		return err
	}
	m.registers[reg] = value
	m.writes = append(m.writes, RegisterWrite{Reg: reg, Value: value})
	return nil
}

// Close marks the bus closed; further access fails.
func (m *MockBus) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IsConnected reports whether the bus is still open.
func (m *MockBus) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransportMock.
func (*MockBus) Type() TransportType {
	return TransportMock
}

// SetRegister seeds a register value without recording a write.
func (m *MockBus) SetRegister(reg, value byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registers[reg] = value
}

// QueueReads scripts the next reads of reg in order. Once consumed,
// reads fall back to the stored register value.
func (m *MockBus) QueueReads(reg byte, values ...byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued[reg] = append(m.queued[reg], values...)
}

// SetReadError makes every read of reg fail with err.
func (m *MockBus) SetReadError(reg byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr[reg] = err
}

// SetWriteError makes every write of reg fail with err.
func (m *MockBus) SetWriteError(reg byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr[reg] = err
}

// Writes returns a copy of all recorded writes in order.
func (m *MockBus) Writes() []RegisterWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RegisterWrite(nil), m.writes...)
}

// ReadCount returns how many times reg was read.
func (m *MockBus) ReadCount(reg byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readCount[reg]
}

// WriteCount returns how many times reg was written.
func (m *MockBus) WriteCount(reg byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeCount[reg]
}
