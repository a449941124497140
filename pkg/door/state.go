// SPDX-License-Identifier: Apache-2.0

// Package door implements the HCP1 door/light domain state machine:
// it decodes broadcast status bytes into a GarageState, translates
// target-state requests into command flag sets, and dedupes no-op
// transitions.
package door

import (
	"sync"

	"github.com/hormann/hcp1/pkg/hcp"
	"github.com/hormann/hcp1/pkg/peer"
)

// DoorState is the door leaf of GarageState.
type DoorState int

const (
	Open DoorState = iota
	Closed
	Opening
	Closing
	Stopped
	Venting
)

func (s DoorState) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	case Opening:
		return "opening"
	case Closing:
		return "closing"
	case Stopped:
		return "stopped"
	case Venting:
		return "venting"
	default:
		return "unknown"
	}
}

// TargetDoorState is the set of door states a caller may request.
type TargetDoorState int

const (
	TargetOpen TargetDoorState = iota
	TargetClosed
	TargetVenting
)

func (s TargetDoorState) String() string {
	switch s {
	case TargetOpen:
		return "open"
	case TargetClosed:
		return "closed"
	case TargetVenting:
		return "venting"
	default:
		return "unknown"
	}
}

// Broadcast status byte 0 bit layout (spec.md §3).
const (
	bitDoorClosed  = 1 << 0
	bitDoorOpened  = 1 << 1
	bitExtRelay    = 1 << 2
	bitLightOn     = 1 << 3
	bitErrorActive = 1 << 4
	bitDirection   = 1 << 5 // 0 = opening, 1 = closing
	bitDoorMoving  = 1 << 6
	bitDoorVenting = 1 << 7
)

// EventKind tags the events a Door emits.
type EventKind int

const (
	EventDoorUpdated EventKind = iota
	EventLightUpdated
	EventError
)

// Event is published to listeners on every state change or decode error.
type Event struct {
	Kind  EventKind
	Door  DoorState
	Light bool
	Err   error
}

// Door holds the current/target/light cells and the last raw status
// byte seen, for dedupe. The zero value is not ready for use; create
// with New.
type Door struct {
	mu sync.Mutex

	peer peer.BusPeer

	doorSet   bool
	door      DoorState
	lightSet  bool
	light     bool
	targetSet bool
	target    TargetDoorState

	lastRawSet bool
	lastRaw    byte

	listeners []func(Event)
}

// New creates a Door bound to bp: a live bus peer or a mock. New
// subscribes to bp's broadcast-data and error events directly, so
// callers need only forward lifecycle events (open/close/init) of
// interest from bp themselves.
func New(bp peer.BusPeer) *Door {
	d := &Door{peer: bp}
	bp.On(func(ev peer.Event) {
		switch ev.Kind {
		case peer.EventData:
			d.ApplyBroadcast(ev.Payload)
		case peer.EventError:
			d.emit(Event{Kind: EventError, Err: ev.Err})
		}
	})
	return d
}

// OnEvent registers a listener invoked synchronously for every
// update_door/update_light/error event.
func (d *Door) OnEvent(fn func(Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

func (d *Door) emit(ev Event) {
	d.mu.Lock()
	listeners := append([]func(Event){}, d.listeners...)
	d.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

// CurrentState returns the decoded door state. Fails with
// ErrNotInitialized until a broadcast has decoded to a door state.
func (d *Door) CurrentState() (DoorState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.doorSet {
		return 0, hcp.ErrNotInitialized
	}
	return d.door, nil
}

// LightOn returns the decoded light state. Fails with
// ErrNotInitialized until the first broadcast is applied.
func (d *Door) LightOn() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.lightSet {
		return false, hcp.ErrNotInitialized
	}
	return d.light, nil
}

// TargetState returns the last requested target. Fails with
// ErrNotInitialized until the first SetTargetState call.
func (d *Door) TargetState() (TargetDoorState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.targetSet {
		return 0, hcp.ErrNotInitialized
	}
	return d.target, nil
}

// LastRawStatus returns the last raw broadcast status byte 0 seen, for
// diagnostics, and whether any broadcast has been seen yet.
func (d *Door) LastRawStatus() (byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastRaw, d.lastRawSet
}

// ApplyBroadcast decodes a 2-byte broadcast status payload (byte 1 is
// opaque and ignored) and updates door/light state, deduping against
// the last raw byte 0 seen.
func (d *Door) ApplyBroadcast(payload [2]byte) {
	status := payload[0]

	d.mu.Lock()
	if d.lastRawSet && d.lastRaw == status {
		d.mu.Unlock()
		return
	}
	d.lastRawSet = true
	d.lastRaw = status
	d.mu.Unlock()

	newDoor, err := decodeDoorState(status)
	light := status&bitLightOn != 0

	if err != nil {
		d.emit(Event{Kind: EventError, Err: err})
		d.setLight(light)
		return
	}

	d.setDoor(newDoor)
	d.setLight(light)
}

func decodeDoorState(status byte) (DoorState, error) {
	if status&bitErrorActive != 0 {
		return 0, hcp.ErrErrorActive
	}
	if status&bitDoorMoving != 0 {
		if status&bitDirection != 0 {
			return Closing, nil
		}
		return Opening, nil
	}
	if status&bitDoorOpened != 0 {
		return Open, nil
	}
	if status&bitDoorClosed != 0 {
		return Closed, nil
	}
	if status&bitDoorVenting != 0 {
		return Venting, nil
	}
	return 0, hcp.ErrUnknownStatus
}

func (d *Door) setDoor(s DoorState) {
	d.mu.Lock()
	if d.doorSet && d.door == s {
		d.mu.Unlock()
		return
	}
	d.doorSet = true
	d.door = s
	d.mu.Unlock()
	d.emit(Event{Kind: EventDoorUpdated, Door: s})
}

func (d *Door) setLight(on bool) {
	d.mu.Lock()
	if d.lightSet && d.light == on {
		d.mu.Unlock()
		return
	}
	d.lightSet = true
	d.light = on
	d.mu.Unlock()
	d.emit(Event{Kind: EventLightUpdated, Light: on})
}

// numericCoincidence reports whether door state d is the state that
// target t names (Open, Closed or Venting). The two enums are numbered
// differently here, so the match is made by name, not by value.
func numericCoincidence(d DoorState, t TargetDoorState) bool {
	switch t {
	case TargetOpen:
		return d == Open
	case TargetClosed:
		return d == Closed
	case TargetVenting:
		return d == Venting
	default:
		return false
	}
}

func targetFlags(t TargetDoorState) uint8 {
	switch t {
	case TargetOpen:
		return hcp.FlagOpen
	case TargetClosed:
		return hcp.FlagClose
	case TargetVenting:
		return hcp.FlagVenting
	default:
		return 0
	}
}

// SetTargetState requests a new target door state. A request equal to
// the current target is a no-op; a request that the current door
// state already satisfies (by numeric coincidence) records the target
// immediately without pushing a command; otherwise a command is
// pushed and the target recorded only once that command is actually
// sent.
func (d *Door) SetTargetState(t TargetDoorState) {
	d.mu.Lock()
	if d.targetSet && d.target == t {
		d.mu.Unlock()
		return
	}

	current := d.door
	haveCurrent := d.doorSet
	d.mu.Unlock()

	if haveCurrent && numericCoincidence(current, t) {
		d.mu.Lock()
		d.targetSet = true
		d.target = t
		d.mu.Unlock()
		return
	}

	sent := d.peer.PushCommand(targetFlags(t), false)
	go func() {
		if _, ok := <-sent; !ok {
			return
		}
		d.mu.Lock()
		d.targetSet = true
		d.target = t
		d.mu.Unlock()
	}()
}

// SetTargetOpen is shorthand for SetTargetState(TargetOpen), for
// callers (e.g. redisbridge) that would rather not depend on the
// TargetDoorState type.
func (d *Door) SetTargetOpen() { d.SetTargetState(TargetOpen) }

// SetTargetClosed is shorthand for SetTargetState(TargetClosed).
func (d *Door) SetTargetClosed() { d.SetTargetState(TargetClosed) }

// SetTargetVenting is shorthand for SetTargetState(TargetVenting).
func (d *Door) SetTargetVenting() { d.SetTargetState(TargetVenting) }

// SetLightOnState requests the light be turned on or off. A request
// equal to the current light state is a no-op; otherwise a toggle
// command is pushed. The stored light state updates only when the
// next broadcast reflects the change.
func (d *Door) SetLightOnState(on bool) {
	d.mu.Lock()
	if d.lightSet && d.light == on {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	d.peer.PushCommand(hcp.FlagToggleLight, false)
}

// EmergencyStop pushes an empty-flags, emergency-stop command.
func (d *Door) EmergencyStop() {
	d.peer.PushCommand(0, true)
}
