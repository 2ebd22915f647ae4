package stream

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/radio-control/sdrfe/internal/adapter"
)

// Sequence counter moduli. CompatWrap skips 65535 on every cycle, matching
// existing receivers that expect it.
const (
	CompatWrap  = 65535
	NaturalWrap = 65536
)

// Defaults for the streamer command line and config.
const (
	DefaultSamplesPerPacket = 256
	DefaultDestination      = "udp://127.0.0.1:25344"
	DefaultStatsEvery       = 1024
)

// Config controls packet framing and termination.
type Config struct {
	// SamplesPerPacket is the number of 32-bit words per packet.
	SamplesPerPacket int

	// ByteOrder applies to both the samples and the sequence counter.
	ByteOrder binary.ByteOrder

	// Length stops the run once this many samples were emitted. Packets are
	// never split, so a run may emit up to SamplesPerPacket-1 extra samples.
	// Zero streams until cancelled.
	Length int64

	// Wrap is the sequence counter modulus, CompatWrap or NaturalWrap.
	Wrap int

	// PollTimeout bounds the wait for each sample. Zero waits forever.
	PollTimeout time.Duration

	// StatsEvery is the number of packets between observer callbacks.
	StatsEvery int
}

// DefaultConfig returns 256-sample little-endian packets with the
// compatibility wrap, unbounded.
func DefaultConfig() Config {
	return Config{
		SamplesPerPacket: DefaultSamplesPerPacket,
		ByteOrder:        binary.LittleEndian,
		Wrap:             CompatWrap,
		StatsEvery:       DefaultStatsEvery,
	}
}

// MaxSamplesPerPacket keeps sequenced packets inside one UDP datagram.
const MaxSamplesPerPacket = (65507 - 2) / BytesPerSample

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.SamplesPerPacket < 1 || c.SamplesPerPacket > MaxSamplesPerPacket:
		return adapter.InvalidArgument("stream.Config", "samples per packet %d outside [1, %d]", c.SamplesPerPacket, MaxSamplesPerPacket)
	case c.ByteOrder == nil:
		return adapter.InvalidArgument("stream.Config", "byte order not set")
	case c.Length < 0:
		return adapter.InvalidArgument("stream.Config", "negative length %d", c.Length)
	case c.Wrap != CompatWrap && c.Wrap != NaturalWrap:
		return adapter.InvalidArgument("stream.Config", "sequence wrap %d must be %d or %d", c.Wrap, CompatWrap, NaturalWrap)
	case c.PollTimeout < 0:
		return adapter.InvalidArgument("stream.Config", "negative poll timeout %v", c.PollTimeout)
	case c.StatsEvery < 0:
		return adapter.InvalidArgument("stream.Config", "negative stats interval %d", c.StatsEvery)
	}
	return nil
}

// ParseByteOrder accepts "little" or "big".
func ParseByteOrder(s string) (binary.ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "little", "le":
		return binary.LittleEndian, nil
	case "big", "be":
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("unknown byte order %q", s)
	}
}

// ByteOrderName returns "little" or "big".
func ByteOrderName(o binary.ByteOrder) string {
	if o == binary.BigEndian {
		return "big"
	}
	return "little"
}
