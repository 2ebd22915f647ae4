package radio

import (
	"math"

	"github.com/radio-control/sdrfe/internal/adapter"
	"github.com/radio-control/sdrfe/internal/mmio"
)

// Register offsets within the radio window.
const (
	RegADCPhase = 0x00 // Fake ADC DDS phase increment
	RegDDCPhase = 0x04 // Down-converter DDS phase increment
	RegReset    = 0x08 // DDS reset, 1 holds the radio in reset
	RegTimer    = 0x0C // 32-bit free-running counter

	// Size is the length of the register window.
	Size = 0x10
)

// BenchmarkReads is the number of timer reads MeasureThroughput performs.
const BenchmarkReads = 2048

// Config describes the DDS clocking.
type Config struct {
	ClockHz    float64
	PhaseWidth uint
}

// DefaultConfig returns the board's DDS clocking.
func DefaultConfig() Config {
	return Config{ClockHz: DefaultClockHz, PhaseWidth: DefaultPhaseWidth}
}

// Controller drives the radio register block. It holds no cached state;
// every getter reads the hardware.
type Controller struct {
	cfg Config

	adcPhase mmio.Reg32
	ddcPhase mmio.Reg32
	reset    mmio.Reg32
	timer    mmio.Reg32
}

var _ adapter.Radio = (*Controller)(nil)

// New binds a controller to regs.
func New(regs mmio.Registers, cfg Config) *Controller {
	return &Controller{
		cfg:      cfg,
		adcPhase: mmio.NewReg32(regs, RegADCPhase),
		ddcPhase: mmio.NewReg32(regs, RegDDCPhase),
		reset:    mmio.NewReg32(regs, RegReset),
		timer:    mmio.NewReg32(regs, RegTimer),
	}
}

// Config returns the clocking the controller converts with.
func (c *Controller) Config() Config { return c.cfg }

// MaxToneHz is the highest accepted tone frequency.
func (c *Controller) MaxToneHz() float64 { return c.cfg.ClockHz }

// MaxTuneHz is the highest accepted tune frequency.
func (c *Controller) MaxTuneHz() float64 { return c.cfg.ClockHz / 2 }

// SetToneFrequency programs the fake ADC to hz.
func (c *Controller) SetToneFrequency(hz float64) error {
	if !inRange(hz, c.MaxToneHz()) {
		return adapter.InvalidArgument("radio.SetToneFrequency", "%g Hz outside [0, %g]", hz, c.MaxToneHz())
	}
	c.adcPhase.Write(PhaseIncrement(hz, c.cfg.ClockHz, c.cfg.PhaseWidth))
	return nil
}

// ToneFrequency reads the programmed tone back.
func (c *Controller) ToneFrequency() float64 {
	return Frequency(c.adcPhase.Read(), c.cfg.ClockHz, c.cfg.PhaseWidth)
}

// SetTuneFrequency tunes the down-converter to hz. The DDC mixes with the
// negative frequency, so the programmed increment is that of clock - hz.
func (c *Controller) SetTuneFrequency(hz float64) error {
	if !inRange(hz, c.MaxTuneHz()) {
		return adapter.InvalidArgument("radio.SetTuneFrequency", "%g Hz outside [0, %g]", hz, c.MaxTuneHz())
	}
	c.ddcPhase.Write(PhaseIncrement(c.cfg.ClockHz-hz, c.cfg.ClockHz, c.cfg.PhaseWidth))
	return nil
}

// TuneFrequency reads the programmed tune frequency back.
func (c *Controller) TuneFrequency() float64 {
	return c.cfg.ClockHz - Frequency(c.ddcPhase.Read(), c.cfg.ClockHz, c.cfg.PhaseWidth)
}

// SetReset holds the radio in reset while asserted.
func (c *Controller) SetReset(asserted bool) {
	var v uint32
	if asserted {
		v = 1
	}
	c.reset.Write(v)
}

// Reset reports the reset register.
func (c *Controller) Reset() bool { return c.reset.Read() != 0 }

// Timer reads the free-running counter.
func (c *Controller) Timer() uint32 { return c.timer.Read() }

// Status reads all four registers once each.
func (c *Controller) Status() adapter.RadioStatus {
	tone := c.adcPhase.Read()
	tune := c.ddcPhase.Read()
	return adapter.RadioStatus{
		TonePhase:  tone,
		TunePhase:  tune,
		ToneHz:     Frequency(tone, c.cfg.ClockHz, c.cfg.PhaseWidth),
		TuneHz:     c.cfg.ClockHz - Frequency(tune, c.cfg.ClockHz, c.cfg.PhaseWidth),
		Reset:      c.reset.Read() != 0,
		Timer:      c.timer.Read(),
		ClockHz:    c.cfg.ClockHz,
		PhaseWidth: c.cfg.PhaseWidth,
	}
}

// MeasureThroughput reads the timer once for the start time and
// BenchmarkReads more times, and reports the read rate. Each read moves one
// 32-bit word.
func (c *Controller) MeasureThroughput() adapter.Throughput {
	start := c.timer.Read()
	stop := start
	for i := 0; i < BenchmarkReads; i++ {
		stop = c.timer.Read()
	}
	return Throughput(start, stop, c.cfg.ClockHz)
}

// Throughput derives the benchmark result from two timer samples.
func Throughput(start, stop uint32, clockHz float64) adapter.Throughput {
	ticks := ElapsedTicks(start, stop)
	secs := float64(ticks) / clockHz
	bytes := BenchmarkReads * 4
	t := adapter.Throughput{
		Reads:   BenchmarkReads,
		Ticks:   ticks,
		Seconds: secs,
		Bytes:   bytes,
	}
	if secs > 0 {
		t.MBps = float64(bytes) / (secs * 1e6)
	}
	return t
}

func inRange(hz, limit float64) bool {
	return !math.IsNaN(hz) && hz >= 0 && hz <= limit
}
