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
	"errors"
	"fmt"
)

// Sentinel errors returned by Device operations. Callers should match
// them with errors.Is; most are wrapped with additional context.
var (
	// ErrBusRead indicates a register read failed at the bus level.
	ErrBusRead = errors.New("bus read failed")

	// ErrBusWrite indicates a register write failed at the bus level.
	ErrBusWrite = errors.New("bus write failed")

	// ErrDeviceNotFound indicates no MFRC522 answered on the bus.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrNoCard indicates no card responded in the RF field.
	ErrNoCard = errors.New("no card in field")

	// ErrCollision indicates more than one card answered the request.
	ErrCollision = errors.New("card collision")

	// ErrAuthFailed indicates MIFARE authentication was rejected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNack indicates the card refused a write with a NAK.
	ErrNack = errors.New("card refused operation")

	// ErrCRC indicates a response failed its checksum.
	ErrCRC = errors.New("checksum mismatch")

	// ErrTimeout indicates the card did not answer in time.
	ErrTimeout = errors.New("response timeout")

	// ErrCommunication indicates a malformed or truncated card response.
	ErrCommunication = errors.New("communication failed")

	// ErrInvalidParameter indicates an argument outside the valid range.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ErrorType classifies errors for retry decisions.
type ErrorType int

const (
	// ErrorTypeTransient indicates a temporary failure that may
	// succeed on retry.
	ErrorTypeTransient ErrorType = iota
	// ErrorTypeTimeout indicates the operation timed out.
	ErrorTypeTimeout
	// ErrorTypePermanent indicates a failure that will not recover
	// without intervention.
	ErrorTypePermanent
)

// String returns a human-readable name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypePermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// TransportError wraps a bus-level failure with the operation and port
// it occurred on.
type TransportError struct {
	// Err is the underlying error.
	Err error
	// Op is the operation that failed (e.g. "read", "write", "open").
	Op string
	// Port is the device path the transport is bound to.
	Port string
	// Type classifies the failure.
	Type ErrorType
	// Retryable reports whether retrying the operation may succeed.
	Retryable bool
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("rc522 %s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("rc522 %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError with retryability derived
// from the error type.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Err:       err,
		Op:        op,
		Port:      port,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewTimeoutError creates a retryable timeout TransportError.
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTimeout, ErrorTypeTimeout)
}

// NewBusReadError creates a retryable TransportError for a failed
// register read.
func NewBusReadError(port string, err error) *TransportError {
	return NewTransportError("read", port, fmt.Errorf("%w: %w", ErrBusRead, err), ErrorTypeTransient)
}

// NewBusWriteError creates a retryable TransportError for a failed
// register write.
func NewBusWriteError(port string, err error) *TransportError {
	return NewTransportError("write", port, fmt.Errorf("%w: %w", ErrBusWrite, err), ErrorTypeTransient)
}

// NewNotReadyError creates a permanent TransportError for operations
// on a closed transport.
func NewNotReadyError(op, port string) *TransportError {
	return NewTransportError(op, port, errors.New("transport not ready"), ErrorTypePermanent)
}

// IsRetryable reports whether err is worth retrying. A TransportError
// carries its own retryability; sentinel errors are classified by kind.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	switch {
	case errors.Is(err, ErrTimeout),
		errors.Is(err, ErrBusRead),
		errors.Is(err, ErrBusWrite),
		errors.Is(err, ErrCommunication),
		errors.Is(err, ErrCollision),
		errors.Is(err, ErrCRC):
		return true
	default:
		return false
	}
}

// GetErrorType classifies err for retry and backoff decisions.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case errors.Is(err, ErrTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrBusRead),
		errors.Is(err, ErrBusWrite),
		errors.Is(err, ErrCommunication),
		errors.Is(err, ErrCollision),
		errors.Is(err, ErrCRC):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}
