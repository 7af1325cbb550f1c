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
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Port is the serial endpoint a Link runs on. A Read after the read
// timeout expires returns (0, nil), which the Link treats as "nothing
// arrived this poll".
type Port interface {
	io.ReadWriteCloser

	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
	Drain() error
}

// OpenPort opens a real serial device at the line settings the host
// uses: 8N1 at the given baud rate.
func OpenPort(device string, baud int) (Port, error) {
	port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", device, err)
	}
	return port, nil
}
