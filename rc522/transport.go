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

// Transport defines the interface for register-level access to an
// MFRC522. This can be implemented by SPI or I2C backends.
type Transport interface {
	// ReadRegister reads a single register
	ReadRegister(reg byte) (byte, error)

	// WriteRegister writes a single register
	WriteRegister(reg, value byte) error

	// Close closes the transport connection
	Close() error

	// IsConnected returns true if the transport is connected
	IsConnected() bool

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportSPI represents SPI bus transport.
	TransportSPI TransportType = "spi"
	// TransportI2C represents I2C bus transport.
	TransportI2C TransportType = "i2c"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// BurstTransport is an optional interface a Transport may implement
// when the bus can stream one register in a single transaction. SPI
// can clock the FIFO register repeatedly without re-addressing; I2C
// cannot. The device falls back to per-byte register access when the
// transport does not implement it.
type BurstTransport interface {
	// ReadBurst reads count bytes from a single register
	ReadBurst(reg byte, count int) ([]byte, error)

	// WriteBurst writes all data bytes to a single register
	WriteBurst(reg byte, data []byte) error
}
