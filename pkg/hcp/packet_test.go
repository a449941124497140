// SPDX-License-Identifier: Apache-2.0

package hcp

import (
	"bytes"
	"testing"
)

func TestNewPacketFromFieldsReferenceVector(t *testing.T) {
	p, err := NewPacketFromFields(0x00, 5, []byte{0x00, 0x01}, nil)
	if err != nil {
		t.Fatalf("NewPacketFromFields: %v", err)
	}
	if got, want := p.HexString(), "00520001cc"; got != want {
		t.Errorf("HexString() = %q, want %q", got, want)
	}
	if !p.IsValid() {
		t.Error("IsValid() = false, want true")
	}
}

func TestNewPacketFromBytesReferenceVector(t *testing.T) {
	raw := []byte{0x80, 0xF3, 0x29, 0x00, 0x10, 0x08}
	p, err := NewPacketFromBytes(raw, true)
	if err != nil {
		t.Fatalf("NewPacketFromBytes: %v", err)
	}
	if p.Address() != 0x80 {
		t.Errorf("Address() = 0x%02X, want 0x80", p.Address())
	}
	if p.Counter() != 0xF {
		t.Errorf("Counter() = %d, want 15", p.Counter())
	}
	if p.LengthNibble() != 3 {
		t.Errorf("LengthNibble() = %d, want 3", p.LengthNibble())
	}
	if want := []byte{0x29, 0x00, 0x10}; !bytes.Equal(p.Payload(), want) {
		t.Errorf("Payload() = %v, want %v", p.Payload(), want)
	}
	if p.CRC() != 0x08 {
		t.Errorf("CRC() = 0x%02X, want 0x08", p.CRC())
	}
}

func TestPacketRoundTrip(t *testing.T) {
	p, err := NewPacketFromFields(0x80, 9, []byte{0x02, 0x28}, nil)
	if err != nil {
		t.Fatalf("NewPacketFromFields: %v", err)
	}

	p2, err := NewPacketFromBytes(p.Bytes(), true)
	if err != nil {
		t.Fatalf("NewPacketFromBytes(p.Bytes()): %v", err)
	}
	if !bytes.Equal(p2.Bytes(), p.Bytes()) {
		t.Errorf("round-trip bytes = %x, want %x", p2.Bytes(), p.Bytes())
	}
	if !p.Equals(p2) {
		t.Error("Equals() = false for round-tripped packet")
	}
}

func TestNewPacketFromBytesTooShort(t *testing.T) {
	if _, err := NewPacketFromBytes([]byte{0x00, 0x00, 0x00}, true); err != ErrTooShort {
		t.Errorf("error = %v, want ErrTooShort", err)
	}
}

func TestNewPacketFromBytesTooLong(t *testing.T) {
	raw := make([]byte, MaxPacketSize+1)
	if _, err := NewPacketFromBytes(raw, true); err != ErrTooLong {
		t.Errorf("error = %v, want ErrTooLong", err)
	}
}

func TestNewPacketFromBytesBadCRC(t *testing.T) {
	raw := []byte{0x80, 0xF3, 0x29, 0x00, 0x10, 0xFF}
	_, err := NewPacketFromBytes(raw, true)
	var crcErr *BadCRCError
	if !asBadCRCError(err, &crcErr) {
		t.Fatalf("error = %v, want *BadCRCError", err)
	}
	if crcErr.Got != 0xFF || crcErr.Expected != 0x08 {
		t.Errorf("BadCRCError = %+v, want Got=0xFF Expected=0x08", crcErr)
	}
}

func TestNewPacketFromBytesLengthMismatch(t *testing.T) {
	raw := []byte{0x80, 0xF1, 0x29, 0x00, 0x10, 0x08}
	_, err := NewPacketFromBytes(raw, true)
	var lenErr *LengthMismatchError
	if !asLengthMismatchError(err, &lenErr) {
		t.Fatalf("error = %v, want *LengthMismatchError", err)
	}
	if lenErr.Declared != 1 || lenErr.Actual != 3 {
		t.Errorf("LengthMismatchError = %+v, want Declared=1 Actual=3", lenErr)
	}
}

func TestNewPacketFromBytesSkipsValidation(t *testing.T) {
	raw := []byte{0x80, 0xF3, 0x29, 0x00, 0x10, 0xFF}
	p, err := NewPacketFromBytes(raw, false)
	if err != nil {
		t.Fatalf("NewPacketFromBytes(validate=false): %v", err)
	}
	if p.IsValid() {
		t.Error("IsValid() = true for a packet with a deliberately wrong CRC")
	}
}

func asBadCRCError(err error, target **BadCRCError) bool {
	if e, ok := err.(*BadCRCError); ok {
		*target = e
		return true
	}
	return false
}

func asLengthMismatchError(err error, target **LengthMismatchError) bool {
	if e, ok := err.(*LengthMismatchError); ok {
		*target = e
		return true
	}
	return false
}
