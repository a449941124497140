// SPDX-License-Identifier: Apache-2.0

package peer

import (
	"context"
	"sync"
	"time"

	"github.com/hormann/hcp1/pkg/hcp"
	"github.com/hormann/hcp1/pkg/protocol"
	"github.com/hormann/hcp1/pkg/serialport"
)

// transport is the narrow serialport.Adapter surface LivePeer depends
// on, so tests can substitute a fake without opening a real port.
type transport interface {
	Packets() <-chan hcp.Packet
	FrameErrors() <-chan error
	Lifecycle() <-chan serialport.LifecycleEvent
	Write(ctx context.Context, p hcp.Packet) error
	SendBreak(d time.Duration) error
	Close() error
}

// LivePeer is the real BusPeer: it drives a protocol.Engine off
// packets arriving from a serialport.Adapter, synthesizes and writes
// responses after the mandatory pre-response delay, and republishes
// decoded broadcasts, errors, and transport lifecycle as peer.Event.
type LivePeer struct {
	adapter transport
	engine  *protocol.Engine

	mu        sync.Mutex
	listeners []Listener

	done chan struct{}
}

// NewLivePeer wires adapter to a fresh protocol engine and starts the
// dispatch loop; it returns immediately.
func NewLivePeer(adapter transport) *LivePeer {
	p := &LivePeer{
		adapter: adapter,
		engine:  protocol.NewEngine(),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// On registers an event listener.
func (p *LivePeer) On(l Listener) {
	p.mu.Lock()
	p.listeners = append(p.listeners, l)
	p.mu.Unlock()
}

func (p *LivePeer) emit(ev Event) {
	p.mu.Lock()
	listeners := append([]Listener{}, p.listeners...)
	p.mu.Unlock()
	for _, l := range listeners {
		l(ev)
	}
}

// PushCommand satisfies BusPeer by enqueueing on the underlying engine.
func (p *LivePeer) PushCommand(flags uint8, emergencyStop bool) <-chan hcp.Packet {
	cmd := p.engine.EnqueueCommand(flags, emergencyStop)
	return cmd.Resolved()
}

// SendBreak issues a send-break on the underlying transport, forcing
// the drive to treat the next byte as the start of a fresh scan cycle.
func (p *LivePeer) SendBreak(d time.Duration) error {
	return p.adapter.SendBreak(d)
}

// Close stops the dispatch loop and closes the underlying transport.
func (p *LivePeer) Close() error {
	close(p.done)
	p.engine.Cancel()
	return p.adapter.Close()
}

func (p *LivePeer) run() {
	packets := p.adapter.Packets()
	frameErrs := p.adapter.FrameErrors()
	lifecycle := p.adapter.Lifecycle()

	for {
		select {
		case <-p.done:
			return

		case pkt, ok := <-packets:
			if !ok {
				return
			}
			p.handlePacket(pkt)

		case err, ok := <-frameErrs:
			if !ok {
				continue
			}
			p.emit(Event{Kind: EventError, Err: err})

		case ev, ok := <-lifecycle:
			if !ok {
				continue
			}
			p.handleLifecycle(ev)
		}
	}
}

func (p *LivePeer) handleLifecycle(ev serialport.LifecycleEvent) {
	switch ev.Kind {
	case serialport.LifecycleOpen:
		p.emit(Event{Kind: EventOpen})
	case serialport.LifecycleClose:
		p.emit(Event{Kind: EventClose})
	case serialport.LifecycleError:
		p.emit(Event{Kind: EventError, Err: ev.Err})
	}
}

func (p *LivePeer) handlePacket(pkt hcp.Packet) {
	result, err := p.engine.Process(pkt)
	if err != nil {
		p.emit(Event{Kind: EventError, Err: err})
		return
	}

	switch result.Kind {
	case protocol.KindBroadcast:
		p.emit(Event{Kind: EventData, Payload: result.BroadcastPayload})

	case protocol.KindAddressedToUs:
		if result.Response == nil {
			return
		}
		go p.writeResponse(*result.Response, result.InitSignaled)
	}
}

func (p *LivePeer) writeResponse(resp hcp.Packet, signalInit bool) {
	time.Sleep(protocol.MinResponseDelay)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := p.adapter.Write(ctx, resp); err != nil {
		p.emit(Event{Kind: EventError, Err: err})
		return
	}
	if signalInit {
		p.emit(Event{Kind: EventInit})
	}
}
