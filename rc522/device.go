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

import (
	"context"
	"fmt"
	"time"

	"github.com/GatectlProject/gatectl/internal/clock"
)

// AntennaGain selects the receiver amplifier gain (RFCfg bits 6:4).
type AntennaGain byte

const (
	// GainMin is 18 dB receiver gain.
	GainMin AntennaGain = 0x00
	// Gain23dB is 23 dB receiver gain.
	Gain23dB AntennaGain = 0x10
	// Gain33dB is 33 dB receiver gain, the chip reset default.
	Gain33dB AntennaGain = 0x40
	// Gain38dB is 38 dB receiver gain.
	Gain38dB AntennaGain = 0x50
	// Gain43dB is 43 dB receiver gain.
	Gain43dB AntennaGain = 0x60
	// GainMax is 48 dB receiver gain.
	GainMax AntennaGain = 0x70
)

const gainMask AntennaGain = 0x70

// Version identifies the chip revision reported by the version register.
type Version byte

const (
	// VersionClone is reported by FM17522 and similar clone chips.
	VersionClone Version = 0x88
	// Version1 is a genuine MFRC522 v1.0.
	Version1 Version = 0x91
	// Version2 is a genuine MFRC522 v2.0.
	Version2 Version = 0x92
)

// String returns a human-readable chip name.
func (v Version) String() string {
	switch v {
	case Version1:
		return "MFRC522 v1.0"
	case Version2:
		return "MFRC522 v2.0"
	case VersionClone:
		return "FM17522 clone"
	default:
		return fmt.Sprintf("unknown chip (0x%02X)", byte(v))
	}
}

const (
	// defaultTimeout bounds how long a single card exchange may take.
	defaultTimeout = 100 * time.Millisecond

	// resetTimeout bounds the oscillator start-up wait after soft reset.
	resetTimeout = 150 * time.Millisecond
)

// Device drives an MFRC522 contactless reader over a register Transport.
// Its methods are not safe for concurrent use; the chip holds protocol
// state (crypto unit, FIFO) that serializes access anyway.
type Device struct {
	transport Transport
	clk       clock.Clock
	timeout   time.Duration
	gain      AntennaGain
}

// New creates a Device bound to the given transport. The device is not
// touched until Init is called.
func New(transport Transport, opts ...Option) (*Device, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}

	device := &Device{
		transport: transport,
		clk:       clock.System(),
		timeout:   defaultTimeout,
		gain:      GainMax,
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	return device, nil
}

// Transport returns the underlying transport.
func (d *Device) Transport() Transport {
	return d.transport
}

// SetTimeout sets the card response timeout for subsequent operations.
func (d *Device) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout %v", ErrInvalidParameter, timeout)
	}
	d.timeout = timeout
	return nil
}

// Init soft-resets the chip and configures it for ISO14443A operation:
// 106 kbit/s both directions, 100% ASK modulation, CRC preset 0x6363
// and the internal timer armed as a 25 ms receive watchdog.
func (d *Device) Init(ctx context.Context) error {
	if err := d.softReset(ctx); err != nil {
		return fmt.Errorf("soft reset: %w", err)
	}

	setup := []struct{ reg, value byte }{
		{regTxMode, 0x00},
		{regRxMode, 0x00},
		{regModWidth, 0x26},
		// TAuto: timer starts at the end of every transmission.
		// 13.56 MHz / (2*0xA9+1) ~= 40 kHz, reload 1000 -> 25 ms.
		{regTMode, 0x80},
		{regTPrescaler, 0xA9},
		{regTReloadH, 0x03},
		{regTReloadL, 0xE8},
		{regTxASK, 0x40},
		{regMode, 0x3D},
	}
	for _, s := range setup {
		if err := d.transport.WriteRegister(s.reg, s.value); err != nil {
			return fmt.Errorf("init register 0x%02X: %w", s.reg, err)
		}
	}

	if err := d.setGain(d.gain); err != nil {
		return fmt.Errorf("set antenna gain: %w", err)
	}
	if err := d.SetAntenna(true); err != nil {
		return fmt.Errorf("antenna on: %w", err)
	}

	debugf("init complete, gain=0x%02X", byte(d.gain))
	return nil
}

// softReset issues the SoftReset command and waits for the chip to come
// back up. The command register keeps the PowerDown bit set while the
// oscillator restarts.
func (d *Device) softReset(ctx context.Context) error {
	if err := d.transport.WriteRegister(regCommand, cmdSoftReset); err != nil {
		return err
	}

	deadline := d.clk.Now().Add(resetTimeout)
	for {
		value, err := d.transport.ReadRegister(regCommand)
		if err != nil {
			return err
		}
		if value&commandPowerDown == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.clk.Now().After(deadline) {
			return fmt.Errorf("%w: oscillator start-up", ErrTimeout)
		}
		d.clk.Sleep(time.Millisecond)
	}
}

// Reinit cycles the RF field off and reruns the init sequence. Cards in
// the field lose power and return to their idle state, which clears any
// stuck protocol state on both sides.
func (d *Device) Reinit(ctx context.Context) error {
	if err := d.SetAntenna(false); err != nil {
		return fmt.Errorf("antenna off: %w", err)
	}
	// Field must stay down long enough for card capacitors to drain.
	d.clk.Sleep(10 * time.Millisecond)
	return d.Init(ctx)
}

// SetAntenna switches the TX driver pins on or off.
func (d *Device) SetAntenna(on bool) error {
	if on {
		return d.setRegisterBits(regTxControl, txControlAntennaOn)
	}
	return d.clearRegisterBits(regTxControl, txControlAntennaOn)
}

func (d *Device) setGain(gain AntennaGain) error {
	value, err := d.transport.ReadRegister(regRFCfg)
	if err != nil {
		return err
	}
	value = (value &^ byte(gainMask)) | byte(gain)
	return d.transport.WriteRegister(regRFCfg, value)
}

// Version reads the chip version register. A bus stuck at 0x00 or 0xFF
// means no chip answered, reported as ErrDeviceNotFound.
func (d *Device) Version() (Version, error) {
	value, err := d.transport.ReadRegister(regVersion)
	if err != nil {
		return 0, err
	}
	if value == 0x00 || value == 0xFF {
		return 0, fmt.Errorf("%w: version register reads 0x%02X", ErrDeviceNotFound, value)
	}
	return Version(value), nil
}

// Close switches the antenna off and closes the transport.
func (d *Device) Close() error {
	if d.transport.IsConnected() {
		// Best effort; the transport may already be unusable.
		_ = d.SetAntenna(false)
	}
	if err := d.transport.Close(); err != nil {
		return fmt.Errorf("close transport: %w", err)
	}
	return nil
}
