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
)

// pollInterval paces the interrupt register polling loop.
const pollInterval = 500 * time.Microsecond

func (d *Device) setRegisterBits(reg, mask byte) error {
	value, err := d.transport.ReadRegister(reg)
	if err != nil {
		return err
	}
	return d.transport.WriteRegister(reg, value|mask)
}

func (d *Device) clearRegisterBits(reg, mask byte) error {
	value, err := d.transport.ReadRegister(reg)
	if err != nil {
		return err
	}
	return d.transport.WriteRegister(reg, value&^mask)
}

// writeFIFO pushes data into the chip FIFO, in one burst transaction
// when the transport supports it.
func (d *Device) writeFIFO(data []byte) error {
	if burst, ok := d.transport.(BurstTransport); ok {
		return burst.WriteBurst(regFIFOData, data)
	}
	for _, b := range data {
		if err := d.transport.WriteRegister(regFIFOData, b); err != nil {
			return err
		}
	}
	return nil
}

// readFIFO drains count bytes from the chip FIFO.
func (d *Device) readFIFO(count int) ([]byte, error) {
	if count <= 0 {
		return nil, nil
	}
	if burst, ok := d.transport.(BurstTransport); ok {
		return burst.ReadBurst(regFIFOData, count)
	}
	data := make([]byte, count)
	for i := range data {
		b, err := d.transport.ReadRegister(regFIFOData)
		if err != nil {
			return nil, err
		}
		data[i] = b
	}
	return data, nil
}

// communicate runs a chip command that exchanges a frame with a card
// and waits for one of the waitIRq bits. txLastBits is the number of
// valid bits in the last transmitted byte, 0 meaning all eight. It
// returns the response bytes and the count of valid bits in the last
// received byte.
func (d *Device) communicate(
	ctx context.Context, command, waitIRq byte, send []byte, txLastBits byte,
) ([]byte, byte, error) {
	// Idle the chip and clear leftovers from the previous exchange.
	if err := d.transport.WriteRegister(regCommand, cmdIdle); err != nil {
		return nil, 0, err
	}
	if err := d.transport.WriteRegister(regComIrq, irqClearAll); err != nil {
		return nil, 0, err
	}
	if err := d.transport.WriteRegister(regFIFOLevel, fifoFlush); err != nil {
		return nil, 0, err
	}
	if err := d.writeFIFO(send); err != nil {
		return nil, 0, err
	}
	if err := d.transport.WriteRegister(regBitFraming, txLastBits&0x07); err != nil {
		return nil, 0, err
	}
	if err := d.transport.WriteRegister(regCommand, command); err != nil {
		return nil, 0, err
	}
	if command == cmdTransceive {
		if err := d.setRegisterBits(regBitFraming, bitFramingStartSend); err != nil {
			return nil, 0, err
		}
	}

	if err := d.waitInterrupt(ctx, waitIRq); err != nil {
		return nil, 0, err
	}

	errValue, err := d.transport.ReadRegister(regError)
	if err != nil {
		return nil, 0, err
	}
	if errValue&errBitColl != 0 {
		return nil, 0, ErrCollision
	}
	if errValue&(errBitProtocol|errBitParity|errBitOverflow) != 0 {
		return nil, 0, fmt.Errorf("%w: error register 0x%02X", ErrCommunication, errValue)
	}

	level, err := d.transport.ReadRegister(regFIFOLevel)
	if err != nil {
		return nil, 0, err
	}
	data, err := d.readFIFO(int(level))
	if err != nil {
		return nil, 0, err
	}
	control, err := d.transport.ReadRegister(regControl)
	if err != nil {
		return nil, 0, err
	}

	return data, control & controlRxLastBits, nil
}

// transceive sends a frame to the card and returns the response.
func (d *Device) transceive(ctx context.Context, send []byte, txLastBits byte) ([]byte, byte, error) {
	return d.communicate(ctx, cmdTransceive, irqRx|irqIdle, send, txLastBits)
}

// waitInterrupt polls the interrupt register until one of the wanted
// bits is set. The chip timer firing first means the card never
// answered; the outer deadline catches a wedged chip.
func (d *Device) waitInterrupt(ctx context.Context, waitIRq byte) error {
	deadline := d.clk.Now().Add(d.timeout)
	for {
		irq, err := d.transport.ReadRegister(regComIrq)
		if err != nil {
			return err
		}
		if irq&waitIRq != 0 {
			return nil
		}
		if irq&irqTimer != 0 {
			return fmt.Errorf("%w: card did not answer", ErrTimeout)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.clk.Now().After(deadline) {
			return fmt.Errorf("%w: no interrupt after %v", ErrTimeout, d.timeout)
		}
		d.clk.Sleep(pollInterval)
	}
}

// calculateCRC runs the chip CRC coprocessor over data and returns the
// two checksum bytes, low byte first as transmitted on the wire. The
// preset is 0x6363 (CRC_A), configured by Init via the mode register.
func (d *Device) calculateCRC(ctx context.Context, data []byte) ([]byte, error) {
	if err := d.transport.WriteRegister(regCommand, cmdIdle); err != nil {
		return nil, err
	}
	if err := d.transport.WriteRegister(regDivIrq, divIrqCRC); err != nil {
		return nil, err
	}
	if err := d.transport.WriteRegister(regFIFOLevel, fifoFlush); err != nil {
		return nil, err
	}
	if err := d.writeFIFO(data); err != nil {
		return nil, err
	}
	if err := d.transport.WriteRegister(regCommand, cmdCalcCRC); err != nil {
		return nil, err
	}

	deadline := d.clk.Now().Add(d.timeout)
	for {
		irq, err := d.transport.ReadRegister(regDivIrq)
		if err != nil {
			return nil, err
		}
		if irq&divIrqCRC != 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if d.clk.Now().After(deadline) {
			return nil, fmt.Errorf("%w: crc coprocessor", ErrTimeout)
		}
		d.clk.Sleep(pollInterval)
	}

	if err := d.transport.WriteRegister(regCommand, cmdIdle); err != nil {
		return nil, err
	}

	low, err := d.transport.ReadRegister(regCRCResultL)
	if err != nil {
		return nil, err
	}
	high, err := d.transport.ReadRegister(regCRCResultH)
	if err != nil {
		return nil, err
	}
	return []byte{low, high}, nil
}

// appendCRC appends the CRC_A checksum of frame to frame.
func (d *Device) appendCRC(ctx context.Context, frame []byte) ([]byte, error) {
	crc, err := d.calculateCRC(ctx, frame)
	if err != nil {
		return nil, err
	}
	return append(frame, crc...), nil
}

// verifyCRC checks the trailing CRC_A checksum of a response frame.
func (d *Device) verifyCRC(ctx context.Context, frame []byte) error {
	if len(frame) < 3 {
		return fmt.Errorf("%w: frame too short for checksum", ErrCommunication)
	}
	crc, err := d.calculateCRC(ctx, frame[:len(frame)-2])
	if err != nil {
		return err
	}
	if crc[0] != frame[len(frame)-2] || crc[1] != frame[len(frame)-1] {
		return ErrCRC
	}
	return nil
}
