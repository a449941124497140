// SPDX-License-Identifier: Apache-2.0

package redisbridge

import (
	"context"
	"fmt"
	"time"
)

// Default Redis key names used by the bridge.
const (
	DefaultStateKey       = "hcp1:door"
	DefaultCommandListKey = "hcp1:door:commands"
)

// Sink is the narrow surface the bridge needs to act on inbound
// commands; *door.Door satisfies it.
type Sink interface {
	SetTargetOpen()
	SetTargetClosed()
	SetTargetVenting()
	SetLightOnState(on bool)
	EmergencyStop()
}

// Bridge republishes door/light updates to Redis and watches a Redis
// list for inbound commands, dispatching them to a Sink.
type Bridge struct {
	client *Client
	sink   Sink

	stateKey       string
	commandListKey string

	// Logf receives diagnostic lines; nil discards them.
	Logf func(format string, args ...any)

	stop chan struct{}
}

// NewBridge creates a Bridge publishing to/watching the default keys.
func NewBridge(client *Client, sink Sink) *Bridge {
	return &Bridge{
		client:         client,
		sink:           sink,
		stateKey:       DefaultStateKey,
		commandListKey: DefaultCommandListKey,
		stop:           make(chan struct{}),
	}
}

func (b *Bridge) logf(format string, args ...any) {
	if b.Logf != nil {
		b.Logf(format, args...)
	}
}

// PublishDoor writes the door field of the state hash and publishes
// the change.
func (b *Bridge) PublishDoor(state string) {
	if err := b.client.WriteAndPublish(b.stateKey, "door", state); err != nil {
		b.logf("redisbridge: publish door state: %v", err)
	}
}

// PublishLight writes the light field of the state hash and publishes
// the change.
func (b *Bridge) PublishLight(on bool) {
	value := "off"
	if on {
		value = "on"
	}
	if err := b.client.WriteAndPublish(b.stateKey, "light", value); err != nil {
		b.logf("redisbridge: publish light state: %v", err)
	}
}

// Run blocks, watching the command list until ctx is done or Stop is
// called.
func (b *Bridge) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.stop:
			return
		default:
		}

		result, err := b.client.BRPop(1*time.Second, b.commandListKey)
		if err != nil {
			b.logf("redisbridge: BRPOP %s: %v", b.commandListKey, err)
			time.Sleep(time.Second)
			continue
		}
		if len(result) != 2 {
			continue // timeout
		}
		b.dispatch(result[1])
	}
}

// Stop ends a running Run loop.
func (b *Bridge) Stop() {
	close(b.stop)
}

func (b *Bridge) dispatch(command string) {
	switch command {
	case "open":
		b.sink.SetTargetOpen()
	case "close":
		b.sink.SetTargetClosed()
	case "vent":
		b.sink.SetTargetVenting()
	case "light_on":
		b.sink.SetLightOnState(true)
	case "light_off":
		b.sink.SetLightOnState(false)
	case "estop":
		b.sink.EmergencyStop()
	default:
		b.logf("redisbridge: %s", fmt.Sprintf("unknown command %q", command))
	}
}
