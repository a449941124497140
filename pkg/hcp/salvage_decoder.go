// SPDX-License-Identifier: Apache-2.0

package hcp

import "time"

// minSalvageWindow is the smallest buffer size at which every possible
// frame offset and length has been fully observed: two max-size frames
// minus one byte (spec.md §4.3).
const minSalvageWindow = 2*MaxPacketSize - 1

// SalvageDecoder recovers frames from a noisy line by probing every
// offset in its accumulation buffer, sized by that offset's own
// declared length nibble, for a valid CRC, rather than trusting the
// first length byte it sees. It never
// drops the whole buffer on a single bad byte: it advances past the
// leading byte and keeps looking. Slower and more permissive than
// StrictDecoder; used when line noise makes losing a frame costly.
type SalvageDecoder struct {
	buf []byte
	// scanned is the offset to resume probing from: every offset before
	// it has either failed a full CRC check or been superseded by a
	// later match; it resets to 0 whenever a frame is popped or the
	// buffer is reset.
	scanned         int
	lastFeed        time.Time
	haveLastFeed    bool
	InactivityLimit time.Duration

	// FilterMaxLength and FilterBreaks enable the two optional chunk
	// preprocessing steps of spec.md §6.3; both default to true. Since
	// the salvage scan already tolerates leading garbage, these are an
	// optimization here rather than a correctness requirement.
	FilterMaxLength bool
	FilterBreaks    bool
}

// NewSalvageDecoder creates a SalvageDecoder using DefaultInactivityTimeout
// with both chunk filters enabled.
func NewSalvageDecoder() *SalvageDecoder {
	return &SalvageDecoder{
		InactivityLimit: DefaultInactivityTimeout,
		FilterMaxLength: true,
		FilterBreaks:    true,
	}
}

// Reset drops the accumulation buffer and the scanned-offset count.
func (d *SalvageDecoder) Reset() {
	d.buf = d.buf[:0]
	d.scanned = 0
}

// Write appends chunk to the accumulation buffer and then repeatedly
// scans it for recoverable frames, returning every packet salvaged, in
// the order recovered. The error slice is always nil; it exists so
// SalvageDecoder and StrictDecoder share one StreamDecoder interface.
func (d *SalvageDecoder) Write(chunk []byte, now time.Time) ([]Packet, []error) {
	if d.haveLastFeed && d.InactivityLimit > 0 && now.Sub(d.lastFeed) > d.InactivityLimit {
		d.Reset()
	}
	d.lastFeed = now
	d.haveLastFeed = true

	if d.FilterMaxLength {
		chunk = clampOverlongChunk(chunk)
	}
	if d.FilterBreaks && len(d.buf) == 0 {
		chunk = trimLeadingBreaks(chunk)
	}

	d.buf = append(d.buf, chunk...)

	var packets []Packet
	for {
		p := d.scanOnce()
		if p == nil {
			break
		}
		packets = append(packets, *p)
	}
	return packets, nil
}

// scanOnce probes every offset from d.scanned onward, each time
// reading that offset's own declared length nibble to size the
// candidate frame (rather than trying every possible length at every
// offset). An offset whose candidate overruns the buffer just hasn't
// received enough bytes yet; it cannot be judged, but offsets after it
// might already be complete (the declared length nibble is read from
// an unrelated, possibly-garbage byte and says nothing about the rest
// of the buffer), so the scan keeps going instead of stopping there.
// On a CRC hit it pops the recovered frame (and any garbage before it)
// from buf, resets the scan, and returns the packet. On reaching the
// end of buf without a hit, it leaves the earliest still-unresolved
// offset in place for the next Write call, unless the window has
// filled, in which case the whole buffer is dropped as unsalvageable.
func (d *SalvageDecoder) scanOnce() *Packet {
	o := d.scanned
	resumeAt := -1
	for ; o+2 <= len(d.buf); o++ {
		declaredLen := int(d.buf[o+1] & 0x0F)
		frameLen := 3 + declaredLen

		if o+frameLen > len(d.buf) {
			if resumeAt == -1 {
				resumeAt = o
			}
			continue
		}

		candidate := d.buf[o : o+frameLen]
		expected, err := CRC8(candidate[:frameLen-1])
		if err == nil && expected == candidate[frameLen-1] {
			if p, perr := NewPacketFromBytes(candidate, false); perr == nil {
				d.buf = d.buf[o+frameLen:]
				d.scanned = 0
				return &p
			}
		}
	}

	if resumeAt >= 0 {
		d.scanned = resumeAt
	} else {
		d.scanned = o
	}

	if len(d.buf) >= minSalvageWindow {
		d.Reset()
	}
	return nil
}
