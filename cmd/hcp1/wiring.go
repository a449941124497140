// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/hormann/hcp1/pkg/automation/redisbridge"
	"github.com/hormann/hcp1/pkg/door"
	"github.com/hormann/hcp1/pkg/hcp"
	"github.com/hormann/hcp1/pkg/logging"
	"github.com/hormann/hcp1/pkg/peer"
	"github.com/hormann/hcp1/pkg/serialport"
)

func parseLogLevel(s string) charmlog.Level {
	switch s {
	case "debug":
		return charmlog.DebugLevel
	case "warn":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

func newDecoder() hcp.StreamDecoder {
	timeout := time.Duration(packetTimeoutMs) * time.Millisecond
	switch parserVariant {
	case "strict":
		d := hcp.NewStrictDecoder()
		d.InactivityLimit = timeout
		d.FilterMaxLength = filterMaxLength
		d.FilterBreaks = filterBreaks
		return d
	default:
		d := hcp.NewSalvageDecoder()
		d.InactivityLimit = timeout
		d.FilterMaxLength = filterMaxLength
		d.FilterBreaks = filterBreaks
		return d
	}
}

// openLivePeer opens the configured serial port and wires it into a
// fresh protocol engine behind a peer.LivePeer.
func openLivePeer(log *logging.Logger) (*peer.LivePeer, error) {
	if portPath == "" {
		return nil, fmt.Errorf("hcp1: --path is required")
	}

	adapter, err := serialport.Open(serialport.Config{
		Path:     portPath,
		BaudRate: baudRate,
		Decoder:  newDecoder(),
	})
	if err != nil {
		return nil, err
	}

	lp := peer.NewLivePeer(adapter)
	lp.On(func(ev peer.Event) {
		switch ev.Kind {
		case peer.EventError:
			log.Warn("bus event", "kind", "error", "err", ev.Err)
		case peer.EventInit:
			log.Info("bus event", "kind", "init", "door", doorName)
		case peer.EventOpen:
			log.Info("bus event", "kind", "open", "door", doorName)
		case peer.EventClose:
			log.Info("bus event", "kind", "close", "door", doorName)
		}
	})
	return lp, nil
}

// maybeStartAutomation wires a redisbridge.Bridge to d if --redis-addr
// was given, publishing door/light updates and dispatching inbound
// commands back into d. It returns nil if the bridge is disabled.
func maybeStartAutomation(ctx context.Context, d *door.Door, log *logging.Logger) (*redisbridge.Bridge, error) {
	if redisAddr == "" {
		return nil, nil
	}

	client, err := redisbridge.NewClient(redisAddr, "", redisDB)
	if err != nil {
		return nil, err
	}

	bridge := redisbridge.NewBridge(client, d)
	bridge.Logf = log.Printf

	d.OnEvent(func(ev door.Event) {
		switch ev.Kind {
		case door.EventDoorUpdated:
			bridge.PublishDoor(ev.Door.String())
		case door.EventLightUpdated:
			bridge.PublishLight(ev.Light)
		}
	})

	go bridge.Run(ctx)
	return bridge, nil
}
