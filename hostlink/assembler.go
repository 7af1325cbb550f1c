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

import "strings"

// defaultLineLimit bounds a single command line. The longest legal
// command is a WRITE with both blocks at capacity, far below this.
const defaultLineLimit = 256

// LineAssembler accumulates raw serial bytes and yields complete
// lines. A line ends at LF; surrounding whitespace including CR is
// trimmed, and blank lines are swallowed. A line growing past the
// limit is discarded wholesale once its terminator arrives.
type LineAssembler struct {
	buf      []byte
	limit    int
	overflow bool
}

// NewLineAssembler returns an assembler with the default line limit.
func NewLineAssembler() *LineAssembler {
	return &LineAssembler{limit: defaultLineLimit}
}

// Feed appends raw bytes and returns the complete lines they finish,
// in arrival order.
func (a *LineAssembler) Feed(data []byte) []string {
	var lines []string
	for _, b := range data {
		if b == '\n' {
			if a.overflow {
				a.overflow = false
				a.buf = a.buf[:0]
				continue
			}
			line := strings.TrimSpace(string(a.buf))
			a.buf = a.buf[:0]
			if line != "" {
				lines = append(lines, line)
			}
			continue
		}

		if a.overflow {
			continue
		}
		a.buf = append(a.buf, b)
		if len(a.buf) > a.limit {
			a.buf = a.buf[:0]
			a.overflow = true
		}
	}
	return lines
}

// Pending reports whether a partial line is buffered.
func (a *LineAssembler) Pending() bool {
	return len(a.buf) > 0 || a.overflow
}

// Reset discards any partial line.
func (a *LineAssembler) Reset() {
	a.buf = a.buf[:0]
	a.overflow = false
}
