package radio

import "math"

// Hardware defaults for the board's DDS.
const (
	DefaultClockHz    = 125e6
	DefaultPhaseWidth = 27

	// MaxPhaseWidth keeps a full-scale increment inside a 32-bit register.
	MaxPhaseWidth = 31
)

// PhaseIncrement returns round(hz / clock * 2^width), saturated to the
// uint32 range.
func PhaseIncrement(hz, clock float64, width uint) uint32 {
	v := math.Round(hz / clock * math.Ldexp(1, int(width)))
	switch {
	case !(v > 0):
		return 0
	case v >= math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(v)
}

// Frequency inverts PhaseIncrement.
func Frequency(phase uint32, clock float64, width uint) float64 {
	return float64(phase) * clock / math.Ldexp(1, int(width))
}

// ElapsedTicks returns stop - start for a 32-bit counter that may have
// wrapped once.
func ElapsedTicks(start, stop uint32) uint64 {
	if stop < start {
		return uint64(stop) + 1<<32 - uint64(start)
	}
	return uint64(stop - start)
}
