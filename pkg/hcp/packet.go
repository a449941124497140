// SPDX-License-Identifier: Apache-2.0

package hcp

import (
	"encoding/hex"
	"fmt"
)

// Packet is an immutable HCP1 frame: address, message-counter nibble,
// payload-length nibble, payload, and trailing CRC-8. Once constructed
// a Packet is a plain value and cheap to copy and share.
type Packet struct {
	address uint8
	counter uint8
	payload []byte
	crc     uint8
}

// NewPacketFromBytes parses a raw frame. validate selects whether the
// CRC and declared length nibble are checked against the actual bytes;
// salvage parsing constructs candidate packets with validate=false and
// checks them separately.
func NewPacketFromBytes(b []byte, validate bool) (Packet, error) {
	n := len(b)
	if n < MinPacketSize {
		return Packet{}, ErrTooShort
	}
	if n > MaxPacketSize {
		return Packet{}, ErrTooLong
	}

	address := b[0]
	counter := b[1] >> 4
	declaredLen := int(b[1] & 0x0F)
	payload := append([]byte(nil), b[2:n-1]...)
	crc := b[n-1]

	if validate {
		actualLen := n - 3
		if declaredLen != actualLen {
			return Packet{}, &LengthMismatchError{Declared: declaredLen, Actual: actualLen}
		}
		expected, err := CRC8(b[:n-1])
		if err != nil {
			return Packet{}, err
		}
		if expected != crc {
			return Packet{}, &BadCRCError{Got: crc, Expected: expected}
		}
	}

	return Packet{address: address, counter: counter, payload: payload, crc: crc}, nil
}

// NewPacketFromFields builds a packet from its logical fields. If crc
// is nil, the checksum is computed over the assembled header+payload.
func NewPacketFromFields(address uint16, counter uint8, payload []byte, crc *uint8) (Packet, error) {
	if address > 0xFF {
		return Packet{}, fmt.Errorf("hcp: address 0x%X exceeds one byte", address)
	}
	if counter > MaxCounter {
		return Packet{}, fmt.Errorf("hcp: counter %d exceeds nibble range", counter)
	}
	if len(payload) > MaxPayloadLen {
		return Packet{}, fmt.Errorf("hcp: payload length %d exceeds %d", len(payload), MaxPayloadLen)
	}
	if crc != nil && *crc > 0xFF {
		return Packet{}, fmt.Errorf("hcp: crc 0x%X exceeds one byte", *crc)
	}

	p := Packet{
		address: uint8(address),
		counter: counter,
		payload: append([]byte(nil), payload...),
	}

	if crc != nil {
		p.crc = *crc
		return p, nil
	}

	computed, err := CRC8(p.header())
	if err != nil {
		// An empty header is impossible (address+length byte are always
		// present), so CRC8 only fails on truly empty input.
		return Packet{}, err
	}
	p.crc = computed
	return p, nil
}

// header returns address, length-byte, and payload, everything the
// CRC is computed over.
func (p Packet) header() []byte {
	b := make([]byte, 0, 2+len(p.payload))
	b = append(b, p.address, (p.counter<<4)|uint8(len(p.payload)))
	b = append(b, p.payload...)
	return b
}

// Address returns the frame's address byte.
func (p Packet) Address() uint8 { return p.address }

// Counter returns the message-counter nibble (0-15).
func (p Packet) Counter() uint8 { return p.counter }

// LengthNibble returns the payload length, the value Header() encodes
// in its low nibble. It is derived from the payload itself, so for a
// frame parsed with validate=false it is the actual payload length, not
// a disagreeing declared nibble.
func (p Packet) LengthNibble() uint8 { return uint8(len(p.payload)) }

// Header returns the first two bytes of the frame (address, length byte).
func (p Packet) Header() [2]byte {
	return [2]byte{p.address, (p.counter << 4) | uint8(len(p.payload))}
}

// Payload returns the frame's payload bytes. Callers must not mutate
// the returned slice.
func (p Packet) Payload() []byte { return p.payload }

// CRC returns the frame's trailing checksum byte.
func (p Packet) CRC() uint8 { return p.crc }

// Bytes returns the complete wire representation of the packet.
func (p Packet) Bytes() []byte {
	b := p.header()
	return append(b, p.crc)
}

// HexString returns the packet's wire bytes as a lowercase hex string.
func (p Packet) HexString() string {
	return hex.EncodeToString(p.Bytes())
}

// Equals reports whether two packets have identical wire bytes.
func (p Packet) Equals(other Packet) bool {
	return p.address == other.address &&
		p.counter == other.counter &&
		p.crc == other.crc &&
		string(p.payload) == string(other.payload)
}

// IsValid reports whether the packet's CRC matches its header+payload.
func (p Packet) IsValid() bool {
	expected, err := CRC8(p.header())
	if err != nil {
		return false
	}
	return expected == p.crc
}
