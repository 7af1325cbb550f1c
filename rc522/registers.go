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

// MFRC522 register map (datasheet section 9). Page bits are already
// folded in; transports apply their own bus-specific address framing.
const (
	regCommand    = 0x01
	regComIEn     = 0x02
	regDivIEn     = 0x03
	regComIrq     = 0x04
	regDivIrq     = 0x05
	regError      = 0x06
	regStatus1    = 0x07
	regStatus2    = 0x08
	regFIFOData   = 0x09
	regFIFOLevel  = 0x0A
	regWaterLevel = 0x0B
	regControl    = 0x0C
	regBitFraming = 0x0D
	regColl       = 0x0E

	regMode        = 0x11
	regTxMode      = 0x12
	regRxMode      = 0x13
	regTxControl   = 0x14
	regTxASK       = 0x15
	regTxSel       = 0x16
	regRxSel       = 0x17
	regRxThreshold = 0x18
	regDemod       = 0x19
	regMfTx        = 0x1C
	regMfRx        = 0x1D
	regSerialSpeed = 0x1F

	regCRCResultH = 0x21
	regCRCResultL = 0x22
	regModWidth   = 0x24
	regRFCfg      = 0x26
	regGsN        = 0x27
	regCWGsP      = 0x28
	regModGsP     = 0x29
	regTMode      = 0x2A
	regTPrescaler = 0x2B
	regTReloadH   = 0x2C
	regTReloadL   = 0x2D

	regVersion = 0x37
)

// MFRC522 command set (values for regCommand).
const (
	cmdIdle             = 0x00
	cmdMem              = 0x01
	cmdGenerateRandomID = 0x02
	cmdCalcCRC          = 0x03
	cmdTransmit         = 0x04
	cmdNoCmdChange      = 0x07
	cmdReceive          = 0x08
	cmdTransceive       = 0x0C
	cmdMFAuthent        = 0x0E
	cmdSoftReset        = 0x0F
)

// ComIrqReg bits.
const (
	irqTimer   = 0x01
	irqErr     = 0x02
	irqLoAlert = 0x04
	irqHiAlert = 0x08
	irqIdle    = 0x10
	irqRx      = 0x20
	irqTx      = 0x40

	irqClearAll = 0x7F
)

// DivIrqReg bits.
const divIrqCRC = 0x04

// ErrorReg bits.
const (
	errBitProtocol = 0x01
	errBitParity   = 0x02
	errBitCRC      = 0x04
	errBitColl     = 0x08
	errBitOverflow = 0x10
	errBitTemp     = 0x40
	errBitWr       = 0x80
)

// Misc register bits.
const (
	commandPowerDown    = 0x10 // regCommand: set while the soft reset runs
	bitFramingStartSend = 0x80
	fifoFlush           = 0x80 // regFIFOLevel: FlushBuffer
	status2Crypto1On    = 0x08 // regStatus2: MFCrypto1On
	txControlAntennaOn  = 0x03 // regTxControl: Tx1RFEn | Tx2RFEn
	controlRxLastBits   = 0x07 // regControl: valid bits in the last byte
	collValuesAfterColl = 0x80 // regColl: clear received bits on collision
)

// ISO 14443-3 type A card commands.
const (
	piccREQA    = 0x26
	piccWUPA    = 0x52
	piccCT      = 0x88 // cascade tag, first byte of an incomplete UID part
	piccSelCL1  = 0x93
	piccSelCL2  = 0x95
	piccSelCL3  = 0x97
	piccHaltA   = 0x50
	piccMFRead  = 0x30
	piccMFWrite = 0xA0

	piccMFAck = 0x0A // 4-bit MIFARE acknowledge
)

// Anticollision/select second bytes (NVB, number of valid bits).
const (
	selAnticollision = 0x20
	selFullUID       = 0x70
)

// SAK bits and values.
const (
	sakCascade   = 0x04 // UID not complete, run the next cascade level
	sakClassic1K = 0x08 // MIFARE Classic 1K
)

// BlockSize is the MIFARE Classic block payload size in bytes.
const BlockSize = 16

// KeySize is the MIFARE Classic authentication key size in bytes.
const KeySize = 6
