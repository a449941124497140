// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hormann/hcp1/pkg/door"
	"github.com/hormann/hcp1/pkg/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer the bus as the configured door's UAP1 accessory",
	Long: `serve opens the serial port, impersonates a UAP1 accessory on the
bus, and keeps the door's state machine in sync with the drive's broadcasts
until interrupted. When --redis-addr is set it also publishes state changes
to Redis and dispatches inbound commands from the command list.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.New(os.Stderr, parseLogLevel(logLevel)).With("door", doorName)

	lp, err := openLivePeer(log)
	if err != nil {
		return err
	}
	defer lp.Close()

	d := door.New(lp)
	d.OnEvent(func(ev door.Event) {
		switch ev.Kind {
		case door.EventDoorUpdated:
			log.Info("door state", "state", ev.Door)
		case door.EventLightUpdated:
			log.Info("light state", "on", ev.Light)
		case door.EventError:
			log.Warn("door error", "err", ev.Err)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge, err := maybeStartAutomation(ctx, d, log)
	if err != nil {
		return err
	}
	if bridge != nil {
		defer bridge.Stop()
		log.Info("automation bridge started", "addr", redisAddr)
	}

	log.Info("serving", "path", portPath, "baud", baudRate, "parser", parserVariant)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down")
	return nil
}
