// SPDX-License-Identifier: Apache-2.0

// Package hcp implements the Hörmann Communication Protocol v1 (HCP1)
// wire framing: packet structure, CRC-8, and the two tolerant
// byte-stream parsers used to recover packet boundaries from a noisy
// half-duplex RS485 line.
package hcp

// Bus addresses.
const (
	AddressBroadcast = 0x00 // all listeners
	AddressMaster    = 0x80 // the drive
	AddressUAP1      = 0x28 // this accessory's own slave address
)

// UAP1 device identity, reported during slave-scan response.
const (
	UAP1Type = 0x14
	UAP1Addr = 0x28
)

// Slave command codes (first payload byte of a master→slave frame) and
// the reply code the slave answers with.
const (
	CmdSlaveScan       = 0x01
	CmdSlaveStatusPoll = 0x20
	ReplySlaveStatus   = 0x29
)

// Command flag bits, a subset of which forms the command byte (the
// payload byte right after the reply code) of a slave-status reply
// (spec.md §3).
const (
	FlagOpen uint8 = 1 << iota
	FlagClose
	FlagToggleLight
	FlagVenting
)

// Packet size limits.
const (
	MinPacketSize = 4  // address + length-byte + 1-byte payload + crc
	MaxPacketSize = 18 // address + length-byte + 15-byte payload + crc
	MaxPayloadLen = 15
	MaxCounter    = 0x0F
)

// CRC-8 parameters fixed by HCP1: poly 0x07, init 0xF3, no input/output
// reflection, xor-out 0x00.
const (
	crcPolynomial = 0x07
	crcInitial    = 0xF3
)
