// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hormann/hcp1/pkg/door"
	"github.com/hormann/hcp1/pkg/logging"
	"github.com/hormann/hcp1/pkg/peer"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drive the door state machine against an in-memory mock peer",
	Long: `simulate runs the door state machine against pkg/peer's MockPeer
instead of a real serial port, so the open/close/vent/light/estop commands
and the resulting broadcast inference can be exercised without hardware.
Type a command and press enter; "quit" exits.`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	log := logging.New(os.Stderr, parseLogLevel(logLevel)).With("door", doorName, "mode", "simulate")

	mock := peer.NewMockPeer().WithInference()
	d := door.New(mock)
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

	fmt.Fprintln(cmd.OutOrStdout(), "commands: open, close, vent, light-on, light-off, estop, quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "open":
			d.SetTargetOpen()
		case "close":
			d.SetTargetClosed()
		case "vent":
			d.SetTargetVenting()
		case "light-on":
			d.SetLightOnState(true)
		case "light-off":
			d.SetLightOnState(false)
		case "estop":
			d.EmergencyStop()
		case "quit", "exit":
			return nil
		case "":
			// ignore blank lines
		default:
			fmt.Fprintln(cmd.OutOrStdout(), "unrecognized command")
		}
	}
	return scanner.Err()
}
