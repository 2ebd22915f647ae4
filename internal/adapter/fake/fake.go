// Package fake provides in-memory Radio and Codec implementations for
// orchestrator and API tests.
package fake

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/radio-control/sdrfe/internal/adapter"
)

const (
	clockHz    = 125e6
	phaseWidth = 27
)

// Radio implements adapter.Radio without hardware.
type Radio struct {
	mu    sync.Mutex
	tone  float64
	tune  float64
	reset bool
	timer uint32
	Calls []string
}

var _ adapter.Radio = (*Radio)(nil)

// NewRadio returns a radio with both oscillators at 0 Hz.
func NewRadio() *Radio {
	return &Radio{}
}

func (r *Radio) call(name string) {
	r.Calls = append(r.Calls, name)
}

// SetToneFrequency validates like the hardware driver.
func (r *Radio) SetToneFrequency(hz float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.call("SetToneFrequency")
	if math.IsNaN(hz) || hz < 0 || hz > clockHz {
		return adapter.InvalidArgument("radio.SetToneFrequency", "%g Hz outside [0, %g]", hz, clockHz)
	}
	r.tone = hz
	return nil
}

// ToneFrequency returns the last accepted tone.
func (r *Radio) ToneFrequency() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tone
}

// SetTuneFrequency validates like the hardware driver.
func (r *Radio) SetTuneFrequency(hz float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.call("SetTuneFrequency")
	if math.IsNaN(hz) || hz < 0 || hz > clockHz/2 {
		return adapter.InvalidArgument("radio.SetTuneFrequency", "%g Hz outside [0, %g]", hz, clockHz/2)
	}
	r.tune = hz
	return nil
}

// TuneFrequency returns the last accepted tune.
func (r *Radio) TuneFrequency() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tune
}

// SetReset records the reset line.
func (r *Radio) SetReset(asserted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.call("SetReset")
	r.reset = asserted
}

// Timer advances by 1000 ticks per call.
func (r *Radio) Timer() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timer += 1000
	return r.timer
}

// Status returns the fake register state.
func (r *Radio) Status() adapter.RadioStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return adapter.RadioStatus{
		ToneHz:     r.tone,
		TuneHz:     r.tune,
		Reset:      r.reset,
		Timer:      r.timer,
		ClockHz:    clockHz,
		PhaseWidth: phaseWidth,
	}
}

// MeasureThroughput reports a fixed result.
func (r *Radio) MeasureThroughput() adapter.Throughput {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.call("MeasureThroughput")
	return adapter.Throughput{Reads: 2048, Ticks: 125000, Seconds: 0.001, Bytes: 8192, MBps: 8.192}
}

// Codec implements adapter.Codec without hardware.
type Codec struct {
	mu         sync.Mutex
	regs       map[uint8]uint16
	configured int

	// Err, when set, is returned by every operation that touches the bus.
	Err error
}

var _ adapter.Codec = (*Codec)(nil)

// NewCodec returns an unconfigured codec.
func NewCodec() *Codec {
	return &Codec{regs: make(map[uint8]uint16)}
}

// Configured returns how many times Configure completed.
func (c *Codec) Configured() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.configured
}

// Configure sets the active bit.
func (c *Codec) Configure(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.Err != nil {
		return c.Err
	}
	c.regs[0x09] = 1
	c.configured++
	return nil
}

// Active reports the active bit.
func (c *Codec) Active() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return false, c.Err
	}
	return c.regs[0x09]&1 == 1, nil
}

// SetVolume writes both DAC registers.
func (c *Codec) SetVolume(level int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if level < 0 || level > 9 {
		return adapter.InvalidArgument("codec.SetVolume", "level %d outside [0, 9]", level)
	}
	if c.Err != nil {
		return c.Err
	}
	c.regs[0x02] = uint16(level*6 + 47)
	c.regs[0x03] = uint16(level*6 + 47)
	return nil
}

// Volume reads the left DAC register back.
func (c *Codec) Volume() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return 0, c.Err
	}
	return levelOf(c.regs[0x02]), nil
}

// AdjustVolume moves the level by delta.
func (c *Codec) AdjustVolume(delta int) (int, error) {
	level, err := c.Volume()
	if err != nil {
		return 0, err
	}
	level = min(max(level+delta, 0), 9)
	return level, c.SetVolume(level)
}

// ReadRegister returns the stored value.
func (c *Codec) ReadRegister(reg uint8) (uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if reg > 0x7F {
		return 0, adapter.InvalidArgument("codec.ReadRegister", "register %#x outside 7-bit range", reg)
	}
	if c.Err != nil {
		return 0, c.Err
	}
	return c.regs[reg], nil
}

// WriteRegister stores value.
func (c *Codec) WriteRegister(reg uint8, value uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if reg > 0x7F || value > 0x1FF {
		return adapter.InvalidArgument("codec.WriteRegister", "register %#x value %#x out of range", reg, value)
	}
	if c.Err != nil {
		return c.Err
	}
	c.regs[reg] = value
	return nil
}

// Dump returns the volume and active registers.
func (c *Codec) Dump() ([]adapter.RegisterValue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	var out []adapter.RegisterValue
	for _, reg := range []uint8{0x02, 0x03, 0x09} {
		out = append(out, adapter.RegisterValue{Name: fmt.Sprintf("R%d", reg), Address: reg, Value: c.regs[reg]})
	}
	return out, nil
}

func levelOf(v uint16) int {
	level := int(math.Round((float64(v) - 47) / 6))
	return min(max(level, 0), 9)
}
