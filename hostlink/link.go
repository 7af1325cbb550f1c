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
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// readBufSize is sized for a poll, not a frame: lines assemble across
// polls.
const readBufSize = 64

// Link frames the serial exchange with the upstream host: it polls for
// complete command lines, sends terminated responses, and emits
// notices. A Link is not safe for concurrent use; the control loop is
// its only caller.
type Link struct {
	port    Port
	log     *logrus.Logger
	asm     *LineAssembler
	pending []string
	readBuf []byte
}

// NewLink wraps an open port. pollTimeout bounds how long a single
// Poll blocks waiting for bytes; zero makes polls return immediately.
func NewLink(port Port, pollTimeout time.Duration, log *logrus.Logger) (*Link, error) {
	if port == nil {
		return nil, errors.New("hostlink: nil port")
	}
	if log == nil {
		log = logrus.New()
	}
	if err := port.SetReadTimeout(pollTimeout); err != nil {
		return nil, fmt.Errorf("set read timeout: %w", err)
	}

	return &Link{
		port:    port,
		log:     log,
		asm:     NewLineAssembler(),
		readBuf: make([]byte, readBufSize),
	}, nil
}

// Poll reads whatever bytes arrived and returns the next complete
// command line. ok reports whether a line was available this poll.
func (l *Link) Poll() (line string, ok bool, err error) {
	if line, ok := l.popPending(); ok {
		return line, true, nil
	}

	n, err := l.port.Read(l.readBuf)
	if err != nil {
		return "", false, fmt.Errorf("serial read: %w", err)
	}
	if n == 0 {
		return "", false, nil
	}

	l.pending = append(l.pending, l.asm.Feed(l.readBuf[:n])...)
	if line, ok := l.popPending(); ok {
		l.log.Debugf("hostlink: received %q", line)
		return line, true, nil
	}
	return "", false, nil
}

func (l *Link) popPending() (string, bool) {
	if len(l.pending) == 0 {
		return "", false
	}
	line := l.pending[0]
	l.pending = l.pending[1:]
	return line, true
}

// Respond sends a card or parse family response: the payload, the End
// marker, a newline, then a flush. The host never sees a partial
// frame.
func (l *Link) Respond(payload string) error {
	return l.send(payload + End)
}

// Notify sends a gate family line, without the End marker.
func (l *Link) Notify(notice Notice) error {
	return l.send(string(notice))
}

func (l *Link) send(line string) error {
	if _, err := io.WriteString(l.port, line+"\n"); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	if err := l.port.Drain(); err != nil {
		return fmt.Errorf("serial drain: %w", err)
	}
	l.log.Debugf("hostlink: sent %q", line)
	return nil
}

// DiscardPending drops buffered input, parsed and unparsed, down to
// the driver's receive queue. Called after every dispatched command so
// stale bytes from a malformed exchange never corrupt the next parse.
func (l *Link) DiscardPending() error {
	l.pending = nil
	l.asm.Reset()
	if err := l.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("serial reset input: %w", err)
	}
	return nil
}

// Close closes the underlying port.
func (l *Link) Close() error {
	return l.port.Close()
}
