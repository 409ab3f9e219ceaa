// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 The hpgl authors

package plotter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/djipco/hpgl/pkg/hpgl"
)

// Sentinel errors surfaced by the session layer.
var (
	// ErrNotConnected is returned by operations requiring an open
	// transport.
	ErrNotConnected = errors.New("plotter: not connected")

	// ErrNotReady is returned by drawing operations issued before the
	// handshake reaches the Ready state.
	ErrNotReady = errors.New("plotter: connection not ready")

	// ErrResponseTimeout is returned when the device does not answer a
	// response-awaiting instruction within the response window.
	ErrResponseTimeout = errors.New("plotter: device response timeout")

	// ErrSessionClosed is returned when the session has been torn down.
	ErrSessionClosed = errors.New("plotter: session closed")

	// ErrQueueCleared is delivered to pending completion callbacks when
	// their commands are discarded by an abort or a fatal queue clear.
	ErrQueueCleared = errors.New("plotter: queue cleared before transmission")
)

// InstructionTooLongError is fatal: an instruction that exceeds the
// device's input buffer capacity can never be transmitted, so the
// queue is cleared rather than left stalled forever.
type InstructionTooLongError struct {
	Length   int
	Capacity int
}

func (e *InstructionTooLongError) Error() string {
	return fmt.Sprintf("plotter: instruction of %d bytes exceeds device buffer capacity of %d", e.Length, e.Capacity)
}

// UnsupportedPaperError reports a paper size or orientation the
// resolved model cannot plot.
type UnsupportedPaperError struct {
	Paper       string
	Orientation hpgl.Orientation
	Model       string
	Supported   []string
}

func (e *UnsupportedPaperError) Error() string {
	return fmt.Sprintf("plotter: model %s does not support paper %q in %s orientation (supported: %s)",
		e.Model, e.Paper, e.Orientation, strings.Join(e.Supported, ", "))
}

// TransportError wraps a transport-level fault. The pump halts on one
// of these until the caller reconnects.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("plotter: transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
