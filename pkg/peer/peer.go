// SPDX-License-Identifier: Apache-2.0

// Package peer defines the bus-peer interface (spec.md §4.7) that
// decouples the door state machine from whatever actually talks to
// the bus: a live serial-backed engine, or a mock used in tests.
package peer

import "github.com/hormann/hcp1/pkg/hcp"

// EventKind tags the events a BusPeer publishes.
type EventKind int

const (
	// EventData carries a 2-byte decoded broadcast status payload.
	EventData EventKind = iota
	// EventError carries a non-fatal protocol or domain error.
	EventError
	// EventInit fires once the slave-scan handshake completes.
	EventInit
	// EventOpen fires when the underlying transport becomes ready.
	EventOpen
	// EventClose fires when the underlying transport goes away.
	EventClose
)

// Event is the single type published for every EventKind; only the
// field relevant to Kind is meaningful.
type Event struct {
	Kind    EventKind
	Payload [2]byte
	Err     error
}

// Listener receives published events.
type Listener func(Event)

// BusPeer is the minimal surface the door state machine depends on.
// PushCommand enqueues a command and returns a channel that receives
// the packet actually sent, once sent; the channel is closed
// immediately (without a value) if the command is abandoned.
type BusPeer interface {
	On(listener Listener)
	PushCommand(flags uint8, emergencyStop bool) <-chan hcp.Packet
}
