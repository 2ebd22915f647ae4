package stream

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/radio-control/sdrfe/internal/adapter"
)

// ErrPollTimeout is returned when a bounded FIFO poll expires.
var ErrPollTimeout = fmt.Errorf("stream: FIFO poll timed out: %w", adapter.ErrHardwareTimeout)

// Stats describes a pipeline run.
type Stats struct {
	Running   bool          `json:"running"`
	Packets   uint64        `json:"packets"`
	Samples   uint64        `json:"samples"`
	Bytes     uint64        `json:"bytes"`
	Overflows uint64        `json:"overflows"`
	Sequence  uint16        `json:"sequence"`
	Started   time.Time     `json:"started"`
	Elapsed   time.Duration `json:"elapsed"`
}

// SampleRate returns samples per second over the run so far.
func (s Stats) SampleRate() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Samples) / s.Elapsed.Seconds()
}

// Observer receives periodic statistics and every non-zero overflow reading.
// It runs on the pipeline goroutine and must not block.
type Observer func(s Stats, overflow uint32)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver installs fn.
func WithObserver(fn Observer) Option {
	return func(p *Pipeline) { p.observer = fn }
}

// Pipeline drains a FIFO into a sink.
type Pipeline struct {
	fifo     *FIFO
	cfg      Config
	observer Observer

	mu    sync.Mutex
	stats Stats
}

// New validates cfg and returns a pipeline over fifo.
func New(fifo *FIFO, cfg Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Pipeline{fifo: fifo, cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Stats returns a snapshot of the current or last run. Safe for concurrent use.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	if s.Running {
		s.Elapsed = time.Since(s.Started)
	}
	return s
}

// Run streams packets to sink until ctx is done, the configured length has
// been emitted, or an error occurs. ctx is checked only between packets, so
// a packet in flight is always completed and emitted. Cancellation is a
// normal exit and returns a nil error. Run does not close sink.
func (p *Pipeline) Run(ctx context.Context, sink Sink) (Stats, error) {
	p.mu.Lock()
	p.stats = Stats{Running: true, Started: time.Now()}
	p.mu.Unlock()

	err := p.pump(ctx, sink)

	p.mu.Lock()
	p.stats.Running = false
	p.stats.Elapsed = time.Since(p.stats.Started)
	s := p.stats
	p.mu.Unlock()
	return s, err
}

func (p *Pipeline) pump(ctx context.Context, sink Sink) error {
	order := p.cfg.ByteOrder
	n := p.cfg.SamplesPerPacket

	head := 0
	if sink.Sequenced() {
		head = 2
	}
	buf := make([]byte, head+n*BytesPerSample)

	var seq int
	for ctx.Err() == nil {
		if head > 0 {
			order.PutUint16(buf, uint16(seq))
		}
		for k := 0; k < n; k++ {
			if err := p.waitSample(); err != nil {
				return err
			}
			order.PutUint32(buf[head+k*BytesPerSample:], p.fifo.Data())
		}

		if err := sink.WritePacket(buf); err != nil {
			return adapter.Normalize("stream.WritePacket", err, nil)
		}
		sent := uint16(seq)
		seq = (seq + 1) % p.cfg.Wrap

		overflow := p.fifo.Overflow()
		s := p.record(n, len(buf), sent, overflow)

		if overflow != 0 {
			log.Printf("[stream] FIFO overflow: %d samples dropped before packet %d", overflow, sent)
		}
		if p.observer != nil && (overflow != 0 || (p.cfg.StatsEvery > 0 && s.Packets%uint64(p.cfg.StatsEvery) == 0)) {
			p.observer(s, overflow)
		}
		if p.cfg.Length > 0 && s.Samples >= uint64(p.cfg.Length) {
			return nil
		}
	}
	return nil
}

func (p *Pipeline) record(samples, bytes int, seq uint16, overflow uint32) Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Packets++
	p.stats.Samples += uint64(samples)
	p.stats.Bytes += uint64(bytes)
	p.stats.Overflows += uint64(overflow)
	p.stats.Sequence = seq
	p.stats.Elapsed = time.Since(p.stats.Started)
	return p.stats
}

// waitSample spins until the FIFO holds a sample.
func (p *Pipeline) waitSample() error {
	if p.cfg.PollTimeout <= 0 {
		for p.fifo.Empty() {
		}
		return nil
	}
	deadline := time.Now().Add(p.cfg.PollTimeout)
	for p.fifo.Empty() {
		if time.Now().After(deadline) {
			return ErrPollTimeout
		}
	}
	return nil
}
