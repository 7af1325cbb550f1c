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

// Package i2c provides I2C transport implementation for MFRC522
package i2c

import (
	"fmt"

	rc522 "github.com/GatectlProject/gatectl/rc522"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// DefaultAddr is the MFRC522 I2C address with the EA strapping
	// pins tied low.
	DefaultAddr = 0x28

	// Max clock frequency (400 kHz fast mode).
	maxClockFreq = 400 * physic.KiloHertz
)

// Transport implements the rc522.Transport interface for I2C
// communication. The MFRC522 maps registers to plain I2C register
// addresses, so no burst support is offered; the device falls back to
// per-byte FIFO access.
type Transport struct {
	bus     i2c.BusCloser
	dev     *i2c.Dev
	busName string
}

// New creates a new I2C transport on the default device address.
func New(busName string) (*Transport, error) {
	return NewWithAddress(busName, DefaultAddr)
}

// NewWithAddress creates a new I2C transport for a reader strapped to
// a non-default address.
func NewWithAddress(busName string, addr uint16) (*Transport, error) {
	// Initialize host
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", busName, err)
	}

	// Set maximum frequency
	_ = bus.SetSpeed(maxClockFreq) // Ignore error, continue with default speed

	return &Transport{
		bus:     bus,
		dev:     &i2c.Dev{Addr: addr, Bus: bus},
		busName: busName,
	}, nil
}

// NewWithBus wires a transport to an already open bus. Tests
// substitute an in-memory bus here.
func NewWithBus(bus i2c.BusCloser, busName string, addr uint16) *Transport {
	return &Transport{
		bus:     bus,
		dev:     &i2c.Dev{Addr: addr, Bus: bus},
		busName: busName,
	}
}

// ReadRegister reads a single register
func (t *Transport) ReadRegister(reg byte) (byte, error) {
	value := make([]byte, 1)
	if err := t.dev.Tx([]byte{reg}, value); err != nil {
		return 0, rc522.NewBusReadError(t.busName, err)
	}
	return value[0], nil
}

// WriteRegister writes a single register
func (t *Transport) WriteRegister(reg, value byte) error {
	if err := t.dev.Tx([]byte{reg, value}, nil); err != nil {
		return rc522.NewBusWriteError(t.busName, err)
	}
	return nil
}

// Close closes the transport connection
func (t *Transport) Close() error {
	t.dev = nil
	if t.bus == nil {
		return nil
	}
	if err := t.bus.Close(); err != nil {
		return fmt.Errorf("failed to close I2C bus %s: %w", t.busName, err)
	}
	t.bus = nil
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	return t.dev != nil
}

// Type returns the transport type
func (*Transport) Type() rc522.TransportType {
	return rc522.TransportI2C
}

// Ensure Transport implements rc522.Transport
var _ rc522.Transport = (*Transport)(nil)
