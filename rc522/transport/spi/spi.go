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

// Package spi provides SPI transport implementation for MFRC522
package spi

import (
	"fmt"

	rc522 "github.com/GatectlProject/gatectl/rc522"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// Max clock frequency the MFRC522 supports (10 MHz).
	maxClockFreq = 10 * physic.MegaHertz

	// Address byte layout: MSB selects read, the register sits in
	// bits 6:1, LSB is always zero.
	readFlag  = 0x80
	writeMask = 0x7E
)

// Transport implements the rc522.Transport interface for SPI
// communication, including burst FIFO access.
type Transport struct {
	port    spi.PortCloser
	conn    spi.Conn
	devPath string
}

// New creates a new SPI transport on the given device path, for
// example "/dev/spidev0.0". An empty path opens the first available
// port.
func New(devPath string) (*Transport, error) {
	// Initialize host
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(devPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", devPath, err)
	}

	conn, err := port.Connect(maxClockFreq, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to configure SPI port %s: %w", devPath, err)
	}

	return &Transport{port: port, conn: conn, devPath: devPath}, nil
}

// NewWithConn wires a transport to an existing SPI connection. Tests
// substitute an in-memory connection here.
func NewWithConn(conn spi.Conn, devPath string) *Transport {
	return &Transport{conn: conn, devPath: devPath}
}

// ReadRegister reads a single register
func (t *Transport) ReadRegister(reg byte) (byte, error) {
	tx := []byte{readAddress(reg), 0x00}
	rx := make([]byte, len(tx))
	if err := t.conn.Tx(tx, rx); err != nil {
		return 0, rc522.NewBusReadError(t.devPath, err)
	}
	return rx[1], nil
}

// WriteRegister writes a single register
func (t *Transport) WriteRegister(reg, value byte) error {
	if err := t.conn.Tx([]byte{writeAddress(reg), value}, nil); err != nil {
		return rc522.NewBusWriteError(t.devPath, err)
	}
	return nil
}

// ReadBurst reads count bytes from one register in a single
// transaction by clocking the read address repeatedly.
func (t *Transport) ReadBurst(reg byte, count int) ([]byte, error) {
	if count <= 0 {
		return nil, nil
	}
	tx := make([]byte, count+1)
	for i := 0; i < count; i++ {
		tx[i] = readAddress(reg)
	}
	// The final zero byte clocks out the last response.
	rx := make([]byte, len(tx))
	if err := t.conn.Tx(tx, rx); err != nil {
		return nil, rc522.NewBusReadError(t.devPath, err)
	}
	return rx[1:], nil
}

// WriteBurst writes all data bytes to one register in a single
// transaction.
func (t *Transport) WriteBurst(reg byte, data []byte) error {
	frame := make([]byte, 0, len(data)+1)
	frame = append(frame, writeAddress(reg))
	frame = append(frame, data...)
	if err := t.conn.Tx(frame, nil); err != nil {
		return rc522.NewBusWriteError(t.devPath, err)
	}
	return nil
}

// Close closes the transport connection
func (t *Transport) Close() error {
	t.conn = nil
	if t.port == nil {
		return nil
	}
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("failed to close SPI port %s: %w", t.devPath, err)
	}
	t.port = nil
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	return t.conn != nil
}

// Type returns the transport type
func (*Transport) Type() rc522.TransportType {
	return rc522.TransportSPI
}

func readAddress(reg byte) byte {
	return (reg << 1) | readFlag
}

func writeAddress(reg byte) byte {
	return (reg << 1) & writeMask
}

// Ensure Transport implements the rc522 transport interfaces
var (
	_ rc522.Transport      = (*Transport)(nil)
	_ rc522.BurstTransport = (*Transport)(nil)
)
