// SPDX-License-Identifier: Apache-2.0

package serialport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenRequiresDecoder(t *testing.T) {
	_, err := Open(Config{Path: "/dev/null"})
	assert.Error(t, err, "Open with a nil Decoder should fail")
}
