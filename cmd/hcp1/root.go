// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags (spec.md §6.3)
	portPath        string
	baudRate        int
	packetTimeoutMs int
	filterMaxLength bool
	filterBreaks    bool
	doorName        string
	parserVariant   string

	// Automation bridge flags
	redisAddr string
	redisDB   int

	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "hcp1",
	Short: "Hörmann HCP1 garage-door bus client",
	Long: `hcp1 impersonates a UAP1 accessory on a Hörmann SupraMatic drive's
RS485 bus: it answers the drive's device scan and status polls, reports the
door's broadcast state, and injects open/close/vent/light/emergency-stop
commands into the next status-response slot.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portPath, "path", "p", "", "serial port device path (required)")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud-rate", "b", 19200, "bus baud rate")
	rootCmd.PersistentFlags().IntVar(&packetTimeoutMs, "packet-timeout-ms", 50, "parser inactivity reset, in milliseconds")
	rootCmd.PersistentFlags().BoolVar(&filterMaxLength, "filter-max-length", true, "clamp over-long read chunks")
	rootCmd.PersistentFlags().BoolVar(&filterBreaks, "filter-breaks", true, "drop leading sync-break zero runs at chunk boundaries")
	rootCmd.PersistentFlags().StringVar(&doorName, "door-name", "Hörmann Garage Door", "label used in log lines")
	rootCmd.PersistentFlags().StringVar(&parserVariant, "parser", "salvage", "stream parser variant: strict|salvage")

	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis-addr", "", "Redis address for the automation bridge (empty disables it)")
	rootCmd.PersistentFlags().IntVar(&redisDB, "redis-db", 0, "Redis database index")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug|info|warn|error")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
