// SPDX-License-Identifier: Apache-2.0

// Package serialport wraps go.bug.st/serial to provide the byte-level
// transport HCP1 runs over: opening the bus at 19,200 Bd 8N1, piping
// inbound bytes into a chosen hcp.StreamDecoder, serializing outbound
// writes, and issuing line breaks.
package serialport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/hormann/hcp1/pkg/hcp"
)

// DefaultBaudRate is the HCP1 bus speed (spec.md §6.1).
const DefaultBaudRate = 19200

// LifecycleKind tags Adapter lifecycle events.
type LifecycleKind int

const (
	LifecycleOpen LifecycleKind = iota
	LifecycleClose
	LifecycleError
)

// LifecycleEvent is published on open/close/error.
type LifecycleEvent struct {
	Kind LifecycleKind
	Err  error
}

// Config configures Adapter.Open.
type Config struct {
	Path    string
	BaudRate int // zero defaults to DefaultBaudRate

	// Decoder receives every byte read from the port. Required.
	Decoder hcp.StreamDecoder
}

// Adapter owns one open serial port. Only the protocol engine is
// expected to call Write; the read loop runs on its own goroutine and
// delivers decoded packets and framing errors through channels.
type Adapter struct {
	port serial.Port

	writeMu sync.Mutex

	decoder hcp.StreamDecoder

	packets   chan hcp.Packet
	frameErrs chan error
	lifecycle chan LifecycleEvent

	closeOnce sync.Once
	closed    chan struct{}
}

// Open opens the configured path and starts the read loop. Callers
// must eventually call Close.
func Open(cfg Config) (*Adapter, error) {
	if cfg.Decoder == nil {
		return nil, fmt.Errorf("hcp: serialport: Config.Decoder is required")
	}
	baud := cfg.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Path, mode)
	if err != nil {
		return nil, fmt.Errorf("hcp: open serial port %s: %w", cfg.Path, err)
	}

	a := &Adapter{
		port:      port,
		decoder:   cfg.Decoder,
		packets:   make(chan hcp.Packet, 32),
		frameErrs: make(chan error, 32),
		lifecycle: make(chan LifecycleEvent, 4),
		closed:    make(chan struct{}),
	}

	a.lifecycle <- LifecycleEvent{Kind: LifecycleOpen}
	go a.readLoop()
	return a, nil
}

// Packets returns the channel of successfully decoded packets.
func (a *Adapter) Packets() <-chan hcp.Packet { return a.packets }

// FrameErrors returns the channel of framing errors hit while decoding.
func (a *Adapter) FrameErrors() <-chan error { return a.frameErrs }

// Lifecycle returns the channel of open/close/error events.
func (a *Adapter) Lifecycle() <-chan LifecycleEvent { return a.lifecycle }

func (a *Adapter) readLoop() {
	buf := make([]byte, 256)
	for {
		n, err := a.port.Read(buf)
		if err != nil {
			select {
			case a.lifecycle <- LifecycleEvent{Kind: LifecycleError, Err: err}:
			default:
			}
			return
		}
		if n == 0 {
			continue
		}

		packets, errs := a.decoder.Write(buf[:n], time.Now())
		for _, p := range packets {
			select {
			case a.packets <- p:
			case <-a.closed:
				return
			}
		}
		for _, e := range errs {
			select {
			case a.frameErrs <- e:
			case <-a.closed:
				return
			}
		}

		select {
		case <-a.closed:
			return
		default:
		}
	}
}

// Write serializes p and writes it to the port. It blocks until the
// UART driver confirms the write or ctx is done.
func (a *Adapter) Write(ctx context.Context, p hcp.Packet) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := a.port.Write(p.Bytes())
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", hcp.ErrWriteFailed, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendBreak asserts a UART BREAK condition for duration, used for
// optional bus resynchronization.
func (a *Adapter) SendBreak(duration time.Duration) error {
	return a.port.Break(duration)
}

// Close closes the underlying port and stops the read loop. Safe to
// call more than once.
func (a *Adapter) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.closed)
		err = a.port.Close()
		select {
		case a.lifecycle <- LifecycleEvent{Kind: LifecycleClose}:
		default:
		}
	})
	return err
}
