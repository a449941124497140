// SPDX-License-Identifier: Apache-2.0

// Package protocol implements the HCP1 bus protocol engine: message
// counter tracking, broadcast/addressed dispatch, slave-scan and
// slave-status response synthesis, and the single-slot outbound
// command queue that piggybacks a user command onto the next status
// poll.
package protocol

import (
	"sync"
	"time"

	"github.com/hormann/hcp1/pkg/hcp"
)

// MinResponseDelay is the minimum time to wait, after an addressed
// request has been classified, before writing the synthesized
// response. Process does not wait itself; its caller observes it.
const MinResponseDelay = 3 * time.Millisecond

// defaultReplyByte1 is the slave-status reply's mode byte (the third
// payload byte, after the reply code and the command flags) when no
// emergency stop is requested; the drive reads any other value as a
// halt command.
const defaultReplyByte1 = 0x10

// PendingCommand is a single queued outbound command. Its resolve
// channel receives the reply packet, and is then closed, when Process
// builds the response to the slave-status poll that consumes it.
type PendingCommand struct {
	Flags         uint8
	EmergencyStop bool

	resolve chan hcp.Packet
}

// Resolved returns the channel the submitter can wait on for the
// packet that was actually sent.
func (c *PendingCommand) Resolved() <-chan hcp.Packet {
	return c.resolve
}

// Kind classifies a successfully-parsed packet for dispatch purposes.
type Kind int

const (
	KindBroadcast Kind = iota
	KindAddressedToUs
	KindOther
)

// Result is everything that can come out of processing one inbound
// packet: at most one of BroadcastPayload/Response is set.
type Result struct {
	Kind Kind

	// BroadcastPayload is set when Kind == KindBroadcast.
	BroadcastPayload [2]byte

	// Response is the packet to send back, set when the incoming
	// packet was an addressed slave-scan or slave-status request.
	Response *hcp.Packet

	// InitSignaled is true when the response answers a slave scan.
	InitSignaled bool
}

// Engine owns the next-expected message counter and the FIFO command
// queue; it is the sole writer of both, so a concurrent caller must
// funnel all packet processing and command submission through it one
// at a time (the embedded mutex does exactly that).
type Engine struct {
	mu          sync.Mutex
	nextCounter uint8
	queue       []*PendingCommand

	// Logf receives diagnostic lines (counter resyncs, ignored
	// frames); nil discards them.
	Logf func(format string, args ...any)
}

// NewEngine creates an Engine with next_counter initialized to 1, per
// spec.md §4.4.
func NewEngine() *Engine {
	return &Engine{nextCounter: 1}
}

// NextCounter returns the engine's current next-expected counter.
func (e *Engine) NextCounter() uint8 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nextCounter
}

func (e *Engine) logf(format string, args ...any) {
	if e.Logf != nil {
		e.Logf(format, args...)
	}
}

// EnqueueCommand appends a command to the FIFO queue; it is consumed
// by the next slave-status request processed. The returned command's
// Resolved channel receives the reply packet built for that request,
// or is closed without a value if Cancel runs first.
func (e *Engine) EnqueueCommand(flags uint8, emergencyStop bool) *PendingCommand {
	cmd := &PendingCommand{
		Flags:         flags,
		EmergencyStop: emergencyStop,
		resolve:       make(chan hcp.Packet, 1),
	}
	e.mu.Lock()
	e.queue = append(e.queue, cmd)
	e.mu.Unlock()
	return cmd
}

// Cancel rejects every queued command and empties the queue; used
// when the underlying transport goes away.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, cmd := range e.queue {
		close(cmd.resolve)
	}
	e.queue = nil
}

// Process classifies an inbound packet, updates next_counter per the
// counter policy, and, for packets addressed to our slave address,
// synthesizes the reply packet (not yet sent; the caller is
// responsible for observing MinResponseDelay and writing it).
func (e *Engine) Process(p hcp.Packet) (Result, error) {
	switch p.Address() {
	case hcp.AddressBroadcast:
		return e.processBroadcast(p)
	case hcp.AddressUAP1:
		return e.processAddressed(p)
	default:
		return e.processOther(p)
	}
}

func (e *Engine) processBroadcast(p hcp.Packet) (Result, error) {
	if len(p.Payload()) != 2 {
		return Result{}, hcp.ErrBadPayloadLen
	}

	e.mu.Lock()
	if p.Counter() != e.nextCounter {
		e.logf("hcp: broadcast counter resync: got %d, expected %d", p.Counter(), e.nextCounter)
	}
	e.nextCounter = (p.Counter() + 1) % 16
	e.mu.Unlock()

	var payload [2]byte
	copy(payload[:], p.Payload())
	return Result{Kind: KindBroadcast, BroadcastPayload: payload}, nil
}

func (e *Engine) processOther(p hcp.Packet) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p.Counter() == e.nextCounter {
		e.nextCounter = (e.nextCounter + 1) % 16
	}
	return Result{Kind: KindOther}, nil
}

func (e *Engine) processAddressed(p hcp.Packet) (Result, error) {
	e.mu.Lock()
	if p.Counter() != e.nextCounter {
		expected := e.nextCounter
		e.mu.Unlock()
		return Result{}, &hcp.BadCounterError{Got: p.Counter(), Expected: expected}
	}

	responseCounter := (p.Counter() + 1) % 16
	e.nextCounter = (responseCounter + 1) % 16
	e.mu.Unlock()

	payload := p.Payload()
	if len(payload) == 0 {
		return Result{}, hcp.ErrUnknownSlaveCommand
	}

	switch payload[0] {
	case hcp.CmdSlaveScan:
		return e.buildScanResponse(payload, responseCounter)
	case hcp.CmdSlaveStatusPoll:
		return e.buildStatusResponse(payload, responseCounter)
	default:
		return Result{}, hcp.ErrUnknownSlaveCommand
	}
}

func (e *Engine) buildScanResponse(payload []byte, counter uint8) (Result, error) {
	if len(payload) != 2 || payload[1] != hcp.AddressMaster {
		return Result{}, hcp.ErrBadScanPayload
	}

	resp, err := hcp.NewPacketFromFields(hcp.AddressMaster, counter,
		[]byte{hcp.UAP1Type, hcp.UAP1Addr}, nil)
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: KindAddressedToUs, Response: &resp, InitSignaled: true}, nil
}

func (e *Engine) buildStatusResponse(payload []byte, counter uint8) (Result, error) {
	if len(payload) != 1 {
		return Result{}, hcp.ErrBadScanPayload
	}

	e.mu.Lock()
	var cmd *PendingCommand
	if len(e.queue) > 0 {
		cmd = e.queue[0]
		e.queue = e.queue[1:]
	}
	e.mu.Unlock()

	var byte0 uint8
	byte1 := uint8(defaultReplyByte1)
	if cmd != nil {
		byte0 = cmd.Flags
		if cmd.EmergencyStop {
			byte1 = 0x00
		}
	}

	resp, err := hcp.NewPacketFromFields(hcp.AddressMaster, counter,
		[]byte{hcp.ReplySlaveStatus, byte0, byte1}, nil)
	if err != nil {
		return Result{}, err
	}

	if cmd != nil {
		cmd.resolve <- resp
		close(cmd.resolve)
	}

	return Result{Kind: KindAddressedToUs, Response: &resp}, nil
}
