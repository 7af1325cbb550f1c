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

package spi

import (
	"bytes"
	"errors"
	"testing"

	rc522 "github.com/GatectlProject/gatectl/rc522"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/spi"
)

// fakeConn records full-duplex transactions and plays back scripted
// responses, so frame layout can be verified without hardware.
type fakeConn struct {
	err     error
	writes  [][]byte
	replies [][]byte
}

func (*fakeConn) String() string      { return "fakespi" }
func (*fakeConn) Duplex() conn.Duplex { return conn.Full }

func (c *fakeConn) Tx(w, r []byte) error {
	if c.err != nil {
		return c.err
	}
	c.writes = append(c.writes, append([]byte(nil), w...))
	if len(c.replies) > 0 {
		copy(r, c.replies[0])
		c.replies = c.replies[1:]
	}
	return nil
}

func (*fakeConn) TxPackets(_ []spi.Packet) error {
	return errors.New("packets not supported")
}

func TestTransportReadRegister(t *testing.T) {
	t.Parallel()

	fake := &fakeConn{replies: [][]byte{{0x00, 0x91}}}
	transport := NewWithConn(fake, "/dev/spidev0.0")

	value, err := transport.ReadRegister(0x37)
	if err != nil {
		t.Fatalf("ReadRegister failed: %v", err)
	}
	if value != 0x91 {
		t.Errorf("Expected value 0x91, got 0x%02X", value)
	}

	// Register 0x37 read: MSB set, register shifted into bits 6:1,
	// one padding byte to clock the response out.
	want := []byte{0xEE, 0x00}
	if len(fake.writes) != 1 || !bytes.Equal(fake.writes[0], want) {
		t.Errorf("Expected frame %X, got %X", want, fake.writes)
	}
}

func TestTransportWriteRegister(t *testing.T) {
	t.Parallel()

	fake := &fakeConn{}
	transport := NewWithConn(fake, "/dev/spidev0.0")

	if err := transport.WriteRegister(0x2C, 0x03); err != nil {
		t.Fatalf("WriteRegister failed: %v", err)
	}

	want := []byte{0x58, 0x03}
	if len(fake.writes) != 1 || !bytes.Equal(fake.writes[0], want) {
		t.Errorf("Expected frame %X, got %X", want, fake.writes)
	}
}

func TestTransportReadBurst(t *testing.T) {
	t.Parallel()

	fake := &fakeConn{replies: [][]byte{{0x00, 0x01, 0x02, 0x03, 0x04}}}
	transport := NewWithConn(fake, "/dev/spidev0.0")

	data, err := transport.ReadBurst(0x09, 4)
	if err != nil {
		t.Fatalf("ReadBurst failed: %v", err)
	}
	if !bytes.Equal(data, []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Errorf("Expected data 01020304, got %X", data)
	}

	// One transaction: the read address repeated per byte plus a
	// trailing zero for the last response.
	want := []byte{0x92, 0x92, 0x92, 0x92, 0x00}
	if len(fake.writes) != 1 || !bytes.Equal(fake.writes[0], want) {
		t.Errorf("Expected frame %X, got %X", want, fake.writes)
	}
}

func TestTransportReadBurstZeroCount(t *testing.T) {
	t.Parallel()

	fake := &fakeConn{}
	transport := NewWithConn(fake, "/dev/spidev0.0")

	data, err := transport.ReadBurst(0x09, 0)
	if err != nil {
		t.Fatalf("ReadBurst failed: %v", err)
	}
	if data != nil {
		t.Errorf("Expected no data, got %X", data)
	}
	if len(fake.writes) != 0 {
		t.Errorf("Expected no bus traffic, got %d transactions", len(fake.writes))
	}
}

func TestTransportWriteBurst(t *testing.T) {
	t.Parallel()

	fake := &fakeConn{}
	transport := NewWithConn(fake, "/dev/spidev0.0")

	if err := transport.WriteBurst(0x09, []byte{0xAA, 0xBB, 0xCC}); err != nil {
		t.Fatalf("WriteBurst failed: %v", err)
	}

	want := []byte{0x12, 0xAA, 0xBB, 0xCC}
	if len(fake.writes) != 1 || !bytes.Equal(fake.writes[0], want) {
		t.Errorf("Expected frame %X, got %X", want, fake.writes)
	}
}

func TestTransportReadError(t *testing.T) {
	t.Parallel()

	fake := &fakeConn{err: errors.New("bus stuck")}
	transport := NewWithConn(fake, "/dev/spidev0.0")

	_, err := transport.ReadRegister(0x37)
	if !errors.Is(err, rc522.ErrBusRead) {
		t.Errorf("Expected bus read error, got %v", err)
	}
	if !rc522.IsRetryable(err) {
		t.Error("Expected bus read error to be retryable")
	}
}

func TestTransportWriteError(t *testing.T) {
	t.Parallel()

	fake := &fakeConn{err: errors.New("bus stuck")}
	transport := NewWithConn(fake, "/dev/spidev0.0")

	err := transport.WriteRegister(0x2C, 0x03)
	if !errors.Is(err, rc522.ErrBusWrite) {
		t.Errorf("Expected bus write error, got %v", err)
	}
}

func TestTransportProperties(t *testing.T) {
	t.Parallel()

	transport := NewWithConn(&fakeConn{}, "/dev/spidev0.0")

	if transport.Type() != rc522.TransportSPI {
		t.Errorf("Expected transport type %v, got %v", rc522.TransportSPI, transport.Type())
	}
	if !transport.IsConnected() {
		t.Error("Expected IsConnected() to return true after NewWithConn")
	}

	if err := transport.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if transport.IsConnected() {
		t.Error("Expected IsConnected() to return false after Close")
	}
}
