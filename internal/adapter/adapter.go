package adapter

import (
	"context"
)

// RadioStatus is a snapshot of the DDS register block.
type RadioStatus struct {
	TonePhase  uint32  `json:"tonePhase"`
	TunePhase  uint32  `json:"tunePhase"`
	ToneHz     float64 `json:"toneHz"`
	TuneHz     float64 `json:"tuneHz"`
	Reset      bool    `json:"reset"`
	Timer      uint32  `json:"timer"`
	ClockHz    float64 `json:"clockHz"`
	PhaseWidth uint    `json:"phaseWidth"`
}

// Throughput is the result of a timer-based register read benchmark.
type Throughput struct {
	Reads   int     `json:"reads"`
	Ticks   uint64  `json:"ticks"`
	Seconds float64 `json:"seconds"`
	Bytes   int     `json:"bytes"`
	MBps    float64 `json:"mbps"`
}

// RegisterValue is one codec register as read back from the device.
type RegisterValue struct {
	Name    string `json:"name"`
	Address uint8  `json:"address"`
	Value   uint16 `json:"value"`
}

// Radio is the DDS tone generator and down-converter.
type Radio interface {
	// SetToneFrequency programs the fake-ADC tone. hz must lie in [0, clock].
	SetToneFrequency(hz float64) error

	// ToneFrequency reads back the programmed tone.
	ToneFrequency() float64

	// SetTuneFrequency programs the DDC. hz must lie in [0, clock/2].
	SetTuneFrequency(hz float64) error

	// TuneFrequency reads back the programmed DDC frequency.
	TuneFrequency() float64

	// SetReset drives the reset line.
	SetReset(asserted bool)

	// Timer reads the free-running counter.
	Timer() uint32

	// Status reads every register in the block.
	Status() RadioStatus

	// MeasureThroughput times a burst of register reads.
	MeasureThroughput() Throughput
}

// Codec is the audio codec behind the I2C master.
type Codec interface {
	// Configure runs the power-up recipe. It stops at the first failure.
	Configure(ctx context.Context) error

	// Active reports whether the codec's active bit is set.
	Active() (bool, error)

	// SetVolume sets both DAC channels to level in [0, 9].
	SetVolume(level int) error

	// Volume reads the left DAC channel back as a level.
	Volume() (int, error)

	// AdjustVolume moves the level by delta, clamped to [0, 9].
	AdjustVolume(delta int) (int, error)

	// ReadRegister reads one 9-bit register.
	ReadRegister(reg uint8) (uint16, error)

	// WriteRegister writes one 9-bit register.
	WriteRegister(reg uint8, value uint16) error

	// Dump reads every mapped register.
	Dump() ([]RegisterValue, error)
}
