package radio

import (
	"errors"
	"math"
	"testing"

	"github.com/radio-control/sdrfe/internal/adapter"
	"github.com/radio-control/sdrfe/internal/mmio/mmiotest"
)

func newController() (*Controller, *mmiotest.Regs) {
	regs := mmiotest.New(Size)
	return New(regs, DefaultConfig()), regs
}

func TestPhaseIncrement(t *testing.T) {
	tests := []struct {
		hz   float64
		want uint32
	}{
		{0, 0},
		{1, 1},
		{1e6, 1073742},
		{10e6, 10737418},
		{62.5e6, 1 << 26},
		{125e6, 1 << 27},
	}
	for _, tt := range tests {
		if got := PhaseIncrement(tt.hz, DefaultClockHz, DefaultPhaseWidth); got != tt.want {
			t.Errorf("PhaseIncrement(%g) = %d, want %d", tt.hz, got, tt.want)
		}
	}
}

func TestPhaseIncrementSaturates(t *testing.T) {
	tests := []struct {
		hz    float64
		width uint
		want  uint32
	}{
		{DefaultClockHz, MaxPhaseWidth, 1 << 31},
		{DefaultClockHz, 32, 1<<32 - 1},
		{2 * DefaultClockHz, 32, 1<<32 - 1},
		{-1e6, DefaultPhaseWidth, 0},
	}
	for _, tt := range tests {
		if got := PhaseIncrement(tt.hz, DefaultClockHz, tt.width); got != tt.want {
			t.Errorf("PhaseIncrement(%g, width %d) = %d, want %d", tt.hz, tt.width, got, tt.want)
		}
	}
}

func TestSetToneFrequency(t *testing.T) {
	c, regs := newController()

	if err := c.SetToneFrequency(10e6); err != nil {
		t.Fatal(err)
	}
	if got := regs.Get(RegADCPhase); got != 10737418 {
		t.Errorf("ADC phase = %d", got)
	}

	// Round trip within one phase step.
	step := DefaultClockHz / (1 << DefaultPhaseWidth)
	if got := c.ToneFrequency(); math.Abs(got-10e6) > step/2 {
		t.Errorf("ToneFrequency = %g", got)
	}
}

func TestSetTuneFrequency(t *testing.T) {
	c, regs := newController()

	if err := c.SetTuneFrequency(0); err != nil {
		t.Fatal(err)
	}
	if got := regs.Get(RegDDCPhase); got != 1<<27 {
		t.Errorf("DDC phase for 0 Hz = %d, want 2^27", got)
	}

	if err := c.SetTuneFrequency(62.5e6); err != nil {
		t.Fatal(err)
	}
	if got := regs.Get(RegDDCPhase); got != 1<<26 {
		t.Errorf("DDC phase for 62.5 MHz = %d, want 2^26", got)
	}

	if err := c.SetTuneFrequency(12.3456e6); err != nil {
		t.Fatal(err)
	}
	step := DefaultClockHz / (1 << DefaultPhaseWidth)
	if got := c.TuneFrequency(); math.Abs(got-12.3456e6) > step/2 {
		t.Errorf("TuneFrequency = %g", got)
	}
}

func TestFrequencyRangeChecks(t *testing.T) {
	tests := []struct {
		name string
		set  func(*Controller) error
	}{
		{"negative tone", func(c *Controller) error { return c.SetToneFrequency(-1) }},
		{"tone above clock", func(c *Controller) error { return c.SetToneFrequency(125e6 + 1) }},
		{"NaN tone", func(c *Controller) error { return c.SetToneFrequency(math.NaN()) }},
		{"negative tune", func(c *Controller) error { return c.SetTuneFrequency(-0.5) }},
		{"tune above Nyquist", func(c *Controller) error { return c.SetTuneFrequency(62.5e6 + 1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, regs := newController()
			regs.Record()
			if err := tt.set(c); !errors.Is(err, adapter.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
			if n := len(regs.Log()); n != 0 {
				t.Errorf("rejected value caused %d register accesses", n)
			}
		})
	}
}

func TestBoundaryFrequenciesAccepted(t *testing.T) {
	c, _ := newController()
	if err := c.SetToneFrequency(125e6); err != nil {
		t.Errorf("tone at clock: %v", err)
	}
	if err := c.SetToneFrequency(0); err != nil {
		t.Errorf("tone at 0: %v", err)
	}
	if err := c.SetTuneFrequency(62.5e6); err != nil {
		t.Errorf("tune at Nyquist: %v", err)
	}
}

func TestResetAndTimer(t *testing.T) {
	c, regs := newController()

	c.SetReset(true)
	if regs.Get(RegReset) != 1 || !c.Reset() {
		t.Error("reset not asserted")
	}
	c.SetReset(false)
	if regs.Get(RegReset) != 0 || c.Reset() {
		t.Error("reset not released")
	}

	regs.Set(RegTimer, 12345)
	if c.Timer() != 12345 {
		t.Errorf("Timer = %d", c.Timer())
	}
}

func TestStatus(t *testing.T) {
	c, regs := newController()
	regs.Set(RegADCPhase, 1<<26)
	regs.Set(RegDDCPhase, 1<<27)
	regs.Set(RegReset, 1)
	regs.Set(RegTimer, 99)

	s := c.Status()
	if s.TonePhase != 1<<26 || s.ToneHz != 62.5e6 {
		t.Errorf("tone = %d / %g", s.TonePhase, s.ToneHz)
	}
	if s.TunePhase != 1<<27 || s.TuneHz != 0 {
		t.Errorf("tune = %d / %g", s.TunePhase, s.TuneHz)
	}
	if !s.Reset || s.Timer != 99 {
		t.Errorf("reset/timer = %v / %d", s.Reset, s.Timer)
	}
}

func TestElapsedTicks(t *testing.T) {
	tests := []struct {
		start, stop uint32
		want        uint64
	}{
		{100, 250, 150},
		{0xFFFFFFF0, 5, 21},
		{7, 7, 0},
		{0xFFFFFFFF, 0, 1},
	}
	for _, tt := range tests {
		if got := ElapsedTicks(tt.start, tt.stop); got != tt.want {
			t.Errorf("ElapsedTicks(%#x, %#x) = %d, want %d", tt.start, tt.stop, got, tt.want)
		}
	}
}

func TestMeasureThroughput(t *testing.T) {
	c, regs := newController()

	// Each timer read advances the counter by 10 ticks, starting just
	// below the wrap point.
	now := uint32(0xFFFFFF00)
	reads := 0
	regs.OnRead(RegTimer, func() uint32 {
		reads++
		now += 10
		return now
	})

	tp := c.MeasureThroughput()
	if reads != BenchmarkReads+1 {
		t.Errorf("timer read %d times", reads)
	}
	if tp.Ticks != 10*BenchmarkReads {
		t.Errorf("ticks = %d", tp.Ticks)
	}
	if tp.Bytes != 8192 {
		t.Errorf("bytes = %d", tp.Bytes)
	}
	wantSecs := float64(10*BenchmarkReads) / DefaultClockHz
	if math.Abs(tp.Seconds-wantSecs) > 1e-12 {
		t.Errorf("seconds = %g, want %g", tp.Seconds, wantSecs)
	}
	if want := 8192 / (wantSecs * 1e6); math.Abs(tp.MBps-want) > 1e-6 {
		t.Errorf("MB/s = %g, want %g", tp.MBps, want)
	}
}

func TestThroughputZeroElapsed(t *testing.T) {
	tp := Throughput(5, 5, DefaultClockHz)
	if tp.MBps != 0 || tp.Seconds != 0 {
		t.Errorf("zero elapsed produced %+v", tp)
	}
}
