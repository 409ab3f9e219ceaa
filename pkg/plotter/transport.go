// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 The hpgl authors

package plotter

import (
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"
)

// Transport is the byte-level I/O boundary to a plotter device. The
// session is the transport's exclusive owner: one session per
// transport, never shared.
//
// Data delivers inbound raw bytes as they arrive and is closed when
// the transport shuts down; Errors delivers transport-level faults.
type Transport interface {
	Open() error
	Write(p []byte) (int, error)
	Close() error
	Data() <-chan []byte
	Errors() <-chan error
}

// SerialTransport drives a plotter over an RS-232-C serial port.
type SerialTransport struct {
	portName string
	baudRate int

	mu   sync.Mutex
	port serial.Port
	data chan []byte
	errs chan error
	done chan struct{}
}

// NewSerialTransport prepares a serial transport. The port is not
// touched until Open.
func NewSerialTransport(portName string, baudRate int) *SerialTransport {
	return &SerialTransport{portName: portName, baudRate: baudRate}
}

// Open opens the port at 8N1 and starts the read pump.
func (t *SerialTransport) Open() error {
	mode := &serial.Mode{
		BaudRate: t.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(t.portName, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %v", t.portName, err)
	}

	t.mu.Lock()
	t.port = port
	t.data = make(chan []byte, 16)
	t.errs = make(chan error, 4)
	t.done = make(chan struct{})
	t.mu.Unlock()

	go t.readLoop(port, t.data, t.errs, t.done)
	return nil
}

func (t *SerialTransport) readLoop(port serial.Port, data chan []byte, errs chan error, done chan struct{}) {
	defer close(data)

	buf := make([]byte, 128)
	for {
		n, err := port.Read(buf)
		if err != nil {
			select {
			case <-done:
				// Expected: Close interrupted the read.
			default:
				select {
				case errs <- err:
				default:
				}
			}
			return
		}
		if n == 0 {
			continue
		}
		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		select {
		case data <- chunk:
		case <-done:
			return
		}
	}
}

func (t *SerialTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()
	if port == nil {
		return 0, ErrNotConnected
	}
	return port.Write(p)
}

// Close stops the read pump and closes the port.
func (t *SerialTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	close(t.done)
	err := t.port.Close()
	t.port = nil
	return err
}

func (t *SerialTransport) Data() <-chan []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data
}

func (t *SerialTransport) Errors() <-chan error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errs
}

// StreamTransport adapts any io.ReadWriteCloser (a websocket bridge, a
// pty, a test double) into a Transport.
type StreamTransport struct {
	rwc io.ReadWriteCloser

	mu     sync.Mutex
	opened bool
	data   chan []byte
	errs   chan error
	done   chan struct{}
}

// NewStreamTransport wraps an already-open stream.
func NewStreamTransport(rwc io.ReadWriteCloser) *StreamTransport {
	return &StreamTransport{rwc: rwc}
}

// Open starts the read pump. The underlying stream is assumed open.
func (t *StreamTransport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.opened {
		return nil
	}
	t.opened = true
	t.data = make(chan []byte, 16)
	t.errs = make(chan error, 4)
	t.done = make(chan struct{})

	go func(data chan []byte, errs chan error, done chan struct{}) {
		defer close(data)
		buf := make([]byte, 128)
		for {
			n, err := t.rwc.Read(buf)
			if err != nil {
				select {
				case <-done:
				default:
					select {
					case errs <- err:
					default:
					}
				}
				return
			}
			if n == 0 {
				continue
			}
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case data <- chunk:
			case <-done:
				return
			}
		}
	}(t.data, t.errs, t.done)
	return nil
}

func (t *StreamTransport) Write(p []byte) (int, error) {
	return t.rwc.Write(p)
}

func (t *StreamTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.opened {
		return t.rwc.Close()
	}
	t.opened = false
	close(t.done)
	return t.rwc.Close()
}

func (t *StreamTransport) Data() <-chan []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data
}

func (t *StreamTransport) Errors() <-chan error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errs
}
