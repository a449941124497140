// SPDX-License-Identifier: Apache-2.0

package hcp

import "testing"

func TestCRC8ReferenceVectors(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want uint8
	}{
		{"single zero byte", []byte{0x00}, 0xD7},
		{"four bytes", []byte{1, 2, 3, 4}, 0xDA},
		{"scan response header", []byte{0x80, 0xF3, 0x29, 0x00, 0x10}, 0x08},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := CRC8(c.in)
			if err != nil {
				t.Fatalf("CRC8(%v) returned error: %v", c.in, err)
			}
			if got != c.want {
				t.Errorf("CRC8(%v) = 0x%02X, want 0x%02X", c.in, got, c.want)
			}
		})
	}
}

func TestCRC8EmptyInput(t *testing.T) {
	if _, err := CRC8(nil); err != ErrEmptyInput {
		t.Errorf("CRC8(nil) error = %v, want ErrEmptyInput", err)
	}
	if _, err := CRC8([]byte{}); err != ErrEmptyInput {
		t.Errorf("CRC8([]byte{}) error = %v, want ErrEmptyInput", err)
	}
}
