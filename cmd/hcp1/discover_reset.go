// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hormann/hcp1/pkg/logging"
	"github.com/hormann/hcp1/pkg/peer"
)

var breakDuration time.Duration

var discoverResetCmd = &cobra.Command{
	Use:   "discover-reset",
	Short: "Send a bus break and wait for the drive to re-scan this slave",
	Long: `discover-reset issues a send-break on the serial line, which the
drive reads as a sync loss, and then waits for the next device scan to
confirm the accessory was re-discovered.`,
	RunE: runDiscoverReset,
}

func init() {
	discoverResetCmd.Flags().DurationVar(&breakDuration, "break-duration", 30*time.Millisecond, "length of the send-break pulse")
	rootCmd.AddCommand(discoverResetCmd)
}

func runDiscoverReset(cmd *cobra.Command, args []string) error {
	log := logging.New(os.Stderr, parseLogLevel(logLevel)).With("door", doorName)

	lp, err := openLivePeer(log)
	if err != nil {
		return err
	}
	defer lp.Close()

	initCh := make(chan struct{}, 1)
	lp.On(func(ev peer.Event) {
		if ev.Kind == peer.EventInit {
			select {
			case initCh <- struct{}{}:
			default:
			}
		}
	})

	log.Info("sending break", "duration", breakDuration)
	if err := lp.SendBreak(breakDuration); err != nil {
		return fmt.Errorf("hcp1: send break: %w", err)
	}

	select {
	case <-initCh:
		log.Info("re-discovered by drive")
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("hcp1: timed out waiting for a device scan after break")
	}
}
