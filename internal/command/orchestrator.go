package command

import (
	"context"
	"log"
	"math"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/radio-control/sdrfe/internal/adapter"
	"github.com/radio-control/sdrfe/internal/codec"
	"github.com/radio-control/sdrfe/internal/stream"
	"github.com/radio-control/sdrfe/internal/telemetry"
)

// Audit targets.
const (
	targetRadio  = "radio"
	targetCodec  = "codec"
	targetStream = "stream"
)

// DefaultCommandTimeout bounds lock wait plus execution of one operation.
const DefaultCommandTimeout = 5 * time.Second

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTelemetry publishes state changes to p.
func WithTelemetry(p Publisher) Option {
	return func(o *Orchestrator) { o.hub = p }
}

// WithAudit records every operation with l.
func WithAudit(l AuditLogger) Option {
	return func(o *Orchestrator) { o.audit = l }
}

// WithStream exposes pipeline statistics.
func WithStream(s StreamSource) Option {
	return func(o *Orchestrator) { o.stream = s }
}

// WithCommandTimeout overrides DefaultCommandTimeout.
func WithCommandTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// Orchestrator routes validated requests to the hardware adapters. One
// operation runs at a time.
type Orchestrator struct {
	radio   adapter.Radio
	codec   adapter.Codec
	stream  StreamSource
	hub     Publisher
	audit   AuditLogger
	timeout time.Duration

	// sem is a mutex that honors context cancellation.
	sem *semaphore.Weighted
}

// NewOrchestrator returns an orchestrator over r and c. Either may be nil,
// in which case its operations report ErrUnavailable.
func NewOrchestrator(r adapter.Radio, c adapter.Codec, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		radio:   r,
		codec:   c,
		timeout: DefaultCommandTimeout,
		sem:     semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RadioStatus reads every DDS register.
func (o *Orchestrator) RadioStatus(ctx context.Context) (adapter.RadioStatus, error) {
	var status adapter.RadioStatus
	err := o.run(ctx, targetRadio, "status", nil, o.needRadio, func(context.Context) error {
		status = o.radio.Status()
		return nil
	})
	return status, err
}

// SetTone programs the fake-ADC tone.
func (o *Orchestrator) SetTone(ctx context.Context, hz float64) error {
	params := map[string]interface{}{"hz": hz}
	err := o.run(ctx, targetRadio, "setTone", params, o.checkHz("radio.SetToneFrequency", hz), func(context.Context) error {
		return o.radio.SetToneFrequency(hz)
	})
	if err == nil {
		o.publish(telemetry.EventToneChanged, map[string]interface{}{"hz": hz})
	}
	return err
}

// SetTune programs the down-converter.
func (o *Orchestrator) SetTune(ctx context.Context, hz float64) error {
	params := map[string]interface{}{"hz": hz}
	err := o.run(ctx, targetRadio, "setTune", params, o.checkHz("radio.SetTuneFrequency", hz), func(context.Context) error {
		return o.radio.SetTuneFrequency(hz)
	})
	if err == nil {
		o.publish(telemetry.EventTuneChanged, map[string]interface{}{"hz": hz})
	}
	return err
}

// SetReset drives the radio reset line.
func (o *Orchestrator) SetReset(ctx context.Context, asserted bool) error {
	params := map[string]interface{}{"reset": asserted}
	err := o.run(ctx, targetRadio, "setReset", params, o.needRadio, func(context.Context) error {
		o.radio.SetReset(asserted)
		return nil
	})
	if err == nil {
		o.publish(telemetry.EventReset, params)
	}
	return err
}

// Timer reads the free-running counter.
func (o *Orchestrator) Timer(ctx context.Context) (uint32, error) {
	var ticks uint32
	err := o.run(ctx, targetRadio, "timer", nil, o.needRadio, func(context.Context) error {
		ticks = o.radio.Timer()
		return nil
	})
	return ticks, err
}

// Benchmark times a burst of register reads.
func (o *Orchestrator) Benchmark(ctx context.Context) (adapter.Throughput, error) {
	var result adapter.Throughput
	err := o.run(ctx, targetRadio, "benchmark", nil, o.needRadio, func(context.Context) error {
		result = o.radio.MeasureThroughput()
		return nil
	})
	return result, err
}

// ConfigureCodec runs the codec power-up recipe.
func (o *Orchestrator) ConfigureCodec(ctx context.Context) error {
	err := o.run(ctx, targetCodec, "configure", nil, o.needCodec, func(ctx context.Context) error {
		return o.codec.Configure(ctx)
	})
	if err == nil {
		o.publish(telemetry.EventCodecConfigured, nil)
	}
	return err
}

// Volume reads the DAC level.
func (o *Orchestrator) Volume(ctx context.Context) (int, error) {
	var level int
	err := o.run(ctx, targetCodec, "volume", nil, o.needCodec, func(context.Context) error {
		var err error
		level, err = o.codec.Volume()
		return err
	})
	return level, err
}

// SetVolume sets both DAC channels to level.
func (o *Orchestrator) SetVolume(ctx context.Context, level int) error {
	params := map[string]interface{}{"level": level}
	check := func() error {
		if err := o.needCodec(); err != nil {
			return err
		}
		if level < codec.MinVolume || level > codec.MaxVolume {
			return adapter.InvalidArgument("codec.SetVolume", "level %d outside [%d, %d]", level, codec.MinVolume, codec.MaxVolume)
		}
		return nil
	}
	err := o.run(ctx, targetCodec, "setVolume", params, check, func(context.Context) error {
		return o.codec.SetVolume(level)
	})
	if err == nil {
		o.publish(telemetry.EventVolumeChanged, map[string]interface{}{"level": level})
	}
	return err
}

// AdjustVolume moves the DAC level by delta and returns the new level.
func (o *Orchestrator) AdjustVolume(ctx context.Context, delta int) (int, error) {
	var level int
	params := map[string]interface{}{"delta": delta}
	err := o.run(ctx, targetCodec, "adjustVolume", params, o.needCodec, func(context.Context) error {
		var err error
		level, err = o.codec.AdjustVolume(delta)
		return err
	})
	if err == nil {
		o.publish(telemetry.EventVolumeChanged, map[string]interface{}{"level": level})
	}
	return level, err
}

// ReadRegister reads one codec register.
func (o *Orchestrator) ReadRegister(ctx context.Context, reg uint8) (uint16, error) {
	var value uint16
	params := map[string]interface{}{"register": reg}
	err := o.run(ctx, targetCodec, "readRegister", params, o.checkRegister(reg, 0), func(context.Context) error {
		var err error
		value, err = o.codec.ReadRegister(reg)
		return err
	})
	return value, err
}

// WriteRegister writes one codec register.
func (o *Orchestrator) WriteRegister(ctx context.Context, reg uint8, value uint16) error {
	params := map[string]interface{}{"register": reg, "value": value}
	err := o.run(ctx, targetCodec, "writeRegister", params, o.checkRegister(reg, value), func(context.Context) error {
		return o.codec.WriteRegister(reg, value)
	})
	if err == nil {
		o.publish(telemetry.EventRegisterWritten, params)
	}
	return err
}

// DumpRegisters reads every mapped codec register.
func (o *Orchestrator) DumpRegisters(ctx context.Context) ([]adapter.RegisterValue, error) {
	var regs []adapter.RegisterValue
	err := o.run(ctx, targetCodec, "dump", nil, o.needCodec, func(context.Context) error {
		var err error
		regs, err = o.codec.Dump()
		return err
	})
	return regs, err
}

// StreamStats returns the pipeline statistics. It does not take the
// hardware lock.
func (o *Orchestrator) StreamStats() (stream.Stats, error) {
	if o.stream == nil {
		return stream.Stats{}, adapter.Normalize("stream.Stats", adapter.ErrUnavailable, nil)
	}
	return o.stream.Stats(), nil
}

// ObserveStream is a stream.Observer that forwards statistics and
// overflow readings as telemetry.
func (o *Orchestrator) ObserveStream(s stream.Stats, overflow uint32) {
	if overflow != 0 {
		o.publish(telemetry.EventOverflow, map[string]interface{}{
			"overflow": overflow,
			"packets":  s.Packets,
		})
	}
	o.publish(telemetry.EventStreamStats, map[string]interface{}{
		"packets":    s.Packets,
		"samples":    s.Samples,
		"overflows":  s.Overflows,
		"sampleRate": s.SampleRate(),
	})
}

// Snapshot summarizes the current state for new telemetry subscribers.
// Hardware reads are skipped when the lock is held.
func (o *Orchestrator) Snapshot() map[string]interface{} {
	snap := map[string]interface{}{}

	if o.sem.TryAcquire(1) {
		if o.radio != nil {
			snap["radio"] = o.radio.Status()
		}
		if o.codec != nil {
			if level, err := o.codec.Volume(); err == nil {
				snap["volume"] = level
			}
		}
		o.sem.Release(1)
	}

	if o.stream != nil {
		snap["stream"] = o.stream.Stats()
	}
	return snap
}

// run validates with check, then executes fn under the hardware lock.
// Every outcome is audited; hardware failures also publish a fault.
func (o *Orchestrator) run(ctx context.Context, target, action string, params map[string]interface{}, check func() error, fn func(context.Context) error) error {
	start := time.Now()
	op := target + "." + action

	err := check()
	if err == nil {
		err = o.exec(ctx, fn)
	}
	err = adapter.Normalize(op, err, params)

	o.logAudit(ctx, target, action, params, err, time.Since(start))
	if err != nil && adapter.Code(err) != adapter.ErrInvalidArgument {
		log.Printf("[command] %s failed: %v", op, err)
		o.publish(telemetry.EventFault, map[string]interface{}{
			"op":      op,
			"code":    adapter.Code(err).Error(),
			"message": err.Error(),
		})
	}
	return err
}

func (o *Orchestrator) exec(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if err := o.sem.Acquire(ctx, 1); err != nil {
		return adapter.ErrBusy
	}
	defer o.sem.Release(1)

	return fn(ctx)
}

func (o *Orchestrator) needRadio() error {
	if o.radio == nil {
		return adapter.ErrUnavailable
	}
	return nil
}

func (o *Orchestrator) needCodec() error {
	if o.codec == nil {
		return adapter.ErrUnavailable
	}
	return nil
}

func (o *Orchestrator) checkHz(op string, hz float64) func() error {
	return func() error {
		if err := o.needRadio(); err != nil {
			return err
		}
		if math.IsNaN(hz) || math.IsInf(hz, 0) || hz < 0 {
			return adapter.InvalidArgument(op, "frequency %g Hz is not a non-negative number", hz)
		}
		return nil
	}
}

func (o *Orchestrator) checkRegister(reg uint8, value uint16) func() error {
	return func() error {
		if err := o.needCodec(); err != nil {
			return err
		}
		if reg > codec.MaxRegister {
			return adapter.InvalidArgument("codec.Register", "register %#x outside 7-bit range", reg)
		}
		if value > codec.MaxValue {
			return adapter.InvalidArgument("codec.Register", "value %#x exceeds 9 bits", value)
		}
		return nil
	}
}

func (o *Orchestrator) publish(eventType string, data map[string]interface{}) {
	if o.hub == nil {
		return
	}
	payload := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		payload[k] = v
	}
	payload["ts"] = time.Now().UTC().Format(time.RFC3339)
	o.hub.Publish(telemetry.Event{Type: eventType, Data: payload})
}

func (o *Orchestrator) logAudit(ctx context.Context, target, action string, params map[string]interface{}, err error, latency time.Duration) {
	if o.audit != nil {
		o.audit.LogAction(ctx, target, action, params, err, latency)
	}
}
