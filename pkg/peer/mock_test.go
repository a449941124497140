// SPDX-License-Identifier: Apache-2.0

package peer

import (
	"testing"
	"time"

	"github.com/hormann/hcp1/pkg/hcp"
)

func TestMockPeerPushCommandResolves(t *testing.T) {
	m := NewMockPeer().SetStubDelay(time.Millisecond)

	ch := m.PushCommand(hcp.FlagOpen, false)
	select {
	case resp := <-ch:
		if resp.Payload()[1] != hcp.FlagOpen {
			t.Errorf("response flags = 0x%02X, want FlagOpen", resp.Payload()[1])
		}
	case <-time.After(time.Second):
		t.Fatal("PushCommand never resolved")
	}
}

func TestMockPeerEmergencyStopUsesZeroMode(t *testing.T) {
	m := NewMockPeer().SetStubDelay(time.Millisecond)

	ch := m.PushCommand(0, true)
	resp := <-ch
	if got := resp.Payload()[2]; got != 0x00 {
		t.Errorf("mode byte = 0x%02X, want 0x00", got)
	}
}

func TestMockPeerInferenceEmitsBroadcast(t *testing.T) {
	m := NewMockPeer().WithInference().SetStubDelay(time.Millisecond)

	events := make(chan Event, 4)
	m.On(func(ev Event) { events <- ev })

	m.PushCommand(hcp.FlagClose, false)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Kind == EventData {
				if ev.Payload[0]&bitDoorMoving == 0 {
					t.Errorf("inferred status 0x%02X missing door-moving bit", ev.Payload[0])
				}
				return
			}
		case <-deadline:
			t.Fatal("inference never emitted a broadcast")
		}
	}
}

func TestMockPeerSimulateBypassesInference(t *testing.T) {
	m := NewMockPeer()

	var got Event
	m.On(func(ev Event) { got = ev })
	m.Simulate(bitDoorOpened)

	if got.Kind != EventData || got.Payload[0] != bitDoorOpened {
		t.Errorf("got event %+v, want a bitDoorOpened EventData", got)
	}
}

func TestMockPeerSimulateErrorAndInit(t *testing.T) {
	m := NewMockPeer()

	var events []Event
	m.On(func(ev Event) { events = append(events, ev) })

	m.SimulateError(hcp.ErrPortClosed)
	m.SignalInit()

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Kind != EventError || events[0].Err != hcp.ErrPortClosed {
		t.Errorf("first event = %+v, want EventError(ErrPortClosed)", events[0])
	}
	if events[1].Kind != EventInit {
		t.Errorf("second event = %+v, want EventInit", events[1])
	}
}
