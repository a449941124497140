// SPDX-License-Identifier: Apache-2.0

// hcp1 impersonates a Hörmann UAP1 accessory on a SupraMatic drive's
// RS485 bus: it answers device scans and status polls, decodes the
// door's broadcast state, and injects commands into the next status
// response.
package main

import (
	"fmt"
	"os"

	cmd "github.com/hormann/hcp1/cmd/hcp1"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
