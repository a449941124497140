// SPDX-License-Identifier: Apache-2.0

package hcp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestPacketRoundTripProperty checks spec.md §8's round-trip invariant:
// Packet.from_bytes(p.bytes).bytes == p.bytes, for any well-formed packet
// (MinPacketSize..MaxPacketSize bytes, so a payload of 1..15 bytes).
func TestPacketRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		address := rapid.Uint8().Draw(t, "address")
		counter := rapid.Uint8Range(0, MaxCounter).Draw(t, "counter")
		payload := rapid.SliceOfN(rapid.Byte(), MinPacketSize-3, MaxPayloadLen).Draw(t, "payload")

		p, err := NewPacketFromFields(uint16(address), counter, payload, nil)
		assert.NoError(t, err)

		p2, err := NewPacketFromBytes(p.Bytes(), true)
		assert.NoError(t, err)
		assert.Equal(t, p.Bytes(), p2.Bytes())
		assert.Equal(t, int(p.LengthNibble())+3, len(p.Bytes()))
		assert.True(t, p.IsValid())
	})
}

// TestCRC8NeverFailsOnNonEmptyInput checks spec.md §8's CRC domain
// invariant directly.
func TestCRC8NeverFailsOnNonEmptyInput(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "data")
		_, err := CRC8(data)
		assert.NoError(t, err)
	})
}

// TestSalvageDecoderNeverPanicsOnArbitraryBytes fuzzes the salvage
// parser with arbitrary noise to make sure it always terminates and
// never emits a packet whose CRC doesn't actually check out.
func TestSalvageDecoderNeverPanicsOnArbitraryBytes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stream := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "stream")

		d := NewSalvageDecoder()
		packets, errs := d.Write(stream, time.Now())
		assert.Nil(t, errs)

		for _, p := range packets {
			assert.True(t, p.IsValid(), "salvage decoder emitted a packet with a bad CRC: %x", p.Bytes())
		}
	})
}

// TestStrictDecoderNeverEmitsInvalidPackets mirrors the same
// never-lie invariant for the strict decoder.
func TestStrictDecoderNeverEmitsInvalidPackets(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stream := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "stream")

		d := NewStrictDecoder()
		packets, _ := d.Write(stream, time.Now())

		for _, p := range packets {
			assert.True(t, p.IsValid(), "strict decoder emitted a packet with a bad CRC: %x", p.Bytes())
		}
	})
}
