// SPDX-License-Identifier: Apache-2.0

package redisbridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	calls []string
}

func (f *fakeSink) SetTargetOpen()          { f.calls = append(f.calls, "open") }
func (f *fakeSink) SetTargetClosed()        { f.calls = append(f.calls, "close") }
func (f *fakeSink) SetTargetVenting()       { f.calls = append(f.calls, "vent") }
func (f *fakeSink) SetLightOnState(on bool) {
	if on {
		f.calls = append(f.calls, "light_on")
	} else {
		f.calls = append(f.calls, "light_off")
	}
}
func (f *fakeSink) EmergencyStop() { f.calls = append(f.calls, "estop") }

func TestBridgeDispatchKnownCommands(t *testing.T) {
	sink := &fakeSink{}
	b := NewBridge(nil, sink)

	for _, cmd := range []string{"open", "close", "vent", "light_on", "light_off", "estop"} {
		b.dispatch(cmd)
	}

	want := []string{"open", "close", "vent", "light_on", "light_off", "estop"}
	assert.Equal(t, want, sink.calls)
}

func TestBridgeDispatchUnknownCommandLogsAndIgnores(t *testing.T) {
	sink := &fakeSink{}
	b := NewBridge(nil, sink)

	var logged string
	b.Logf = func(format string, args ...any) { logged = format }

	b.dispatch("unknown")

	assert.Empty(t, sink.calls)
	assert.NotEmpty(t, logged, "expected a log line for an unrecognized command")
}

func TestBridgeRunReturnsOnCancelledContext(t *testing.T) {
	sink := &fakeSink{}
	b := NewBridge(nil, sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "Run did not return after context cancellation")
	}
}

func TestBridgeRunReturnsOnStop(t *testing.T) {
	sink := &fakeSink{}
	b := NewBridge(nil, sink)
	b.Stop()

	done := make(chan struct{})
	go func() {
		b.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "Run did not return after Stop")
	}
}
