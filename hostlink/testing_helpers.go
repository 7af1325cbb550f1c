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

package hostlink

import (
	"bytes"
	"sync"
	"time"
)

// MockPort is an in-memory Port for tests: pushed bytes come back out
// of Read, writes accumulate for inspection, and an empty inbox reads
// like an expired poll timeout.
type MockPort struct {
	ReadErr  error
	WriteErr error

	mu          sync.Mutex
	inbox       bytes.Buffer
	outbox      bytes.Buffer
	timeout     time.Duration
	drains      int
	inputResets int
	closed      bool
}

// NewMockPort creates an empty mock port.
func NewMockPort() *MockPort {
	return &MockPort{}
}

// Push queues bytes for the next Reads.
func (p *MockPort) Push(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inbox.WriteString(s)
}

// Read pops queued bytes. An empty inbox returns (0, nil), matching a
// serial read timeout.
func (p *MockPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ReadErr != nil {
		return 0, p.ReadErr
	}
	if p.inbox.Len() == 0 {
		return 0, nil
	}
	return p.inbox.Read(b)
}

// Write records outgoing bytes.
func (p *MockPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.WriteErr != nil {
		return 0, p.WriteErr
	}
	return p.outbox.Write(b)
}

// Close marks the port closed.
func (p *MockPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// SetReadTimeout records the poll timeout.
func (p *MockPort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeout = t
	return nil
}

// ResetInputBuffer discards queued input, like the driver dropping its
// receive queue.
func (p *MockPort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inputResets++
	p.inbox.Reset()
	return nil
}

// Drain counts flushes; mock writes are synchronous anyway.
func (p *MockPort) Drain() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drains++
	return nil
}

// Output returns everything written so far.
func (p *MockPort) Output() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outbox.String()
}

// TakeOutput returns everything written so far and clears it.
func (p *MockPort) TakeOutput() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.outbox.String()
	p.outbox.Reset()
	return out
}

// Drains returns how many times Drain was called.
func (p *MockPort) Drains() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.drains
}

// InputResets returns how many times ResetInputBuffer was called.
func (p *MockPort) InputResets() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inputResets
}

// Closed reports whether Close was called.
func (p *MockPort) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// ReadTimeout returns the timeout set through SetReadTimeout.
func (p *MockPort) ReadTimeout() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timeout
}

var _ Port = (*MockPort)(nil)
