// SPDX-License-Identifier: Apache-2.0

package peer

import (
	"sync"
	"time"

	"github.com/hormann/hcp1/pkg/hcp"
)

// Broadcast status byte 0 bits, mirrored from pkg/door so the mock can
// synthesize broadcasts without importing the door package (which
// itself depends on peer).
const (
	bitDoorClosed  = 1 << 0
	bitDoorOpened  = 1 << 1
	bitLightOn     = 1 << 3
	bitDirection   = 1 << 5
	bitDoorMoving  = 1 << 6
	bitDoorVenting = 1 << 7
)

// mockDoorState is the mock's private notion of door position; it
// exists only to drive inference-mode broadcasts.
type mockDoorState int

const (
	mockOpen mockDoorState = iota
	mockClosed
	mockOpening
	mockClosing
	mockVenting
)

// MockPeer is a BusPeer that never touches a real bus. In stub mode it
// answers every pushed command with a synthetic reply packet after a
// short delay. In inference mode it additionally predicts the drive's
// resulting state from (flags, current mock state) and emits a
// matching synthetic broadcast about 100ms later.
type MockPeer struct {
	mu          sync.Mutex
	listeners   []Listener
	inference   bool
	stubDelay   time.Duration
	state       mockDoorState
	light       bool
	nextCounter uint8
}

// NewMockPeer creates a MockPeer in stub mode with a 10ms reply delay.
func NewMockPeer() *MockPeer {
	return &MockPeer{stubDelay: 10 * time.Millisecond, nextCounter: 1}
}

// WithInference switches the mock into inference mode, where pushed
// commands are used to predict and broadcast the drive's next state.
func (m *MockPeer) WithInference() *MockPeer {
	m.mu.Lock()
	m.inference = true
	m.mu.Unlock()
	return m
}

// SetStubDelay overrides the default reply delay used in stub mode.
func (m *MockPeer) SetStubDelay(d time.Duration) *MockPeer {
	m.mu.Lock()
	m.stubDelay = d
	m.mu.Unlock()
	return m
}

// On registers an event listener.
func (m *MockPeer) On(l Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

func (m *MockPeer) emit(ev Event) {
	m.mu.Lock()
	listeners := append([]Listener{}, m.listeners...)
	m.mu.Unlock()
	for _, l := range listeners {
		l(ev)
	}
}

// PushCommand satisfies BusPeer. The returned channel receives the
// stub/synthetic response packet once "sent".
func (m *MockPeer) PushCommand(flags uint8, emergencyStop bool) <-chan hcp.Packet {
	ch := make(chan hcp.Packet, 1)

	m.mu.Lock()
	delay := m.stubDelay
	inference := m.inference
	counter := m.nextCounter
	m.nextCounter = (m.nextCounter + 1) % 16
	m.mu.Unlock()

	var byte1 uint8 = 0x10
	if emergencyStop {
		byte1 = 0x00
	}

	go func() {
		time.Sleep(delay)
		resp, err := hcp.NewPacketFromFields(hcp.AddressMaster, counter,
			[]byte{hcp.ReplySlaveStatus, flags, byte1}, nil)
		if err == nil {
			ch <- resp
		}
		close(ch)

		if inference {
			time.AfterFunc(100*time.Millisecond, func() {
				m.applyInference(flags)
			})
		}
	}()

	return ch
}

func (m *MockPeer) applyInference(flags uint8) {
	m.mu.Lock()
	if flags&hcp.FlagToggleLight != 0 {
		m.light = !m.light
	}
	switch {
	case flags&hcp.FlagVenting != 0:
		m.state = mockVenting
	case flags&hcp.FlagClose != 0:
		if m.state != mockClosed {
			m.state = mockClosing
		}
	case flags&hcp.FlagOpen != 0:
		if m.state != mockOpen {
			m.state = mockOpening
		}
	}
	status := m.encodeStatus()
	m.mu.Unlock()

	m.emit(Event{Kind: EventData, Payload: status})
}

// encodeStatus must be called with m.mu held.
func (m *MockPeer) encodeStatus() [2]byte {
	var b byte
	switch m.state {
	case mockOpen:
		b |= bitDoorOpened
	case mockClosed:
		b |= bitDoorClosed
	case mockOpening:
		b |= bitDoorMoving
	case mockClosing:
		b |= bitDoorMoving | bitDirection
	case mockVenting:
		b |= bitDoorVenting
	}
	if m.light {
		b |= bitLightOn
	}
	return [2]byte{b, 0x00}
}

// Simulate directly injects a raw broadcast status byte 0, bypassing
// inference, for tests that want full control.
func (m *MockPeer) Simulate(statusByte0 byte) {
	m.emit(Event{Kind: EventData, Payload: [2]byte{statusByte0, 0x00}})
}

// SimulateError injects an EventError.
func (m *MockPeer) SimulateError(err error) {
	m.emit(Event{Kind: EventError, Err: err})
}

// SignalInit injects an EventInit.
func (m *MockPeer) SignalInit() {
	m.emit(Event{Kind: EventInit})
}
