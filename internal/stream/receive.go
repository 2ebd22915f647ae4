package stream

import (
	"encoding/binary"
	"fmt"
)

// Packet is a decoded sequenced datagram.
type Packet struct {
	Sequence uint16
	Samples  []uint32
}

// ParsePacket decodes a datagram produced by a sequenced sink.
func ParsePacket(b []byte, order binary.ByteOrder) (Packet, error) {
	if len(b) < 2+BytesPerSample || (len(b)-2)%BytesPerSample != 0 {
		return Packet{}, fmt.Errorf("malformed packet of %d bytes", len(b))
	}
	p := Packet{
		Sequence: order.Uint16(b),
		Samples:  make([]uint32, (len(b)-2)/BytesPerSample),
	}
	for i := range p.Samples {
		p.Samples[i] = order.Uint32(b[2+i*BytesPerSample:])
	}
	return p, nil
}

// Tracker follows a sequence counter on the receive side and counts gaps and
// late arrivals. A jump of less than half the modulus is treated as loss,
// anything else as a late or duplicate packet.
type Tracker struct {
	wrap    int
	started bool
	next    int

	Received  uint64
	Lost      uint64
	Reordered uint64
}

// NewTracker returns a tracker for counters wrapping at wrap.
func NewTracker(wrap int) *Tracker {
	return &Tracker{wrap: wrap}
}

// Observe records seq and returns how many packets were skipped before it.
func (t *Tracker) Observe(seq uint16) int {
	t.Received++
	s := int(seq) % t.wrap
	if !t.started {
		t.started = true
		t.next = (s + 1) % t.wrap
		return 0
	}

	gap := (s - t.next + t.wrap) % t.wrap
	if gap >= t.wrap/2 {
		t.Reordered++
		return 0
	}
	t.Lost += uint64(gap)
	t.next = (s + 1) % t.wrap
	return gap
}
