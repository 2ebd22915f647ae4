// Package adaptertest checks that a Radio or Codec implementation honors
// the adapter contracts: range validation before any change, read-back of
// accepted settings, and normalized error codes.
package adaptertest

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/radio-control/sdrfe/internal/adapter"
)

// RadioLimits are the frequency bounds the radio under test enforces.
type RadioLimits struct {
	MaxToneHz float64
	MaxTuneHz float64

	// Resolution is the largest acceptable read-back error in Hz.
	Resolution float64
}

// RunRadioConformance runs the Radio contract suite. newRadio must return
// a fresh radio per call.
func RunRadioConformance(t *testing.T, newRadio func() adapter.Radio, limits RadioLimits) {
	t.Helper()

	t.Run("ToneRoundTrip", func(t *testing.T) {
		r := newRadio()
		for _, hz := range []float64{0, 1000, limits.MaxToneHz / 3, limits.MaxToneHz} {
			if err := r.SetToneFrequency(hz); err != nil {
				t.Fatalf("SetToneFrequency(%g) = %v", hz, err)
			}
			if got := r.ToneFrequency(); math.Abs(got-hz) > limits.Resolution {
				t.Errorf("ToneFrequency() = %g after setting %g", got, hz)
			}
		}
	})

	t.Run("TuneRoundTrip", func(t *testing.T) {
		r := newRadio()
		for _, hz := range []float64{0, 1000, limits.MaxTuneHz / 3, limits.MaxTuneHz} {
			if err := r.SetTuneFrequency(hz); err != nil {
				t.Fatalf("SetTuneFrequency(%g) = %v", hz, err)
			}
			if got := r.TuneFrequency(); math.Abs(got-hz) > limits.Resolution {
				t.Errorf("TuneFrequency() = %g after setting %g", got, hz)
			}
		}
	})

	t.Run("RejectsOutOfRange", func(t *testing.T) {
		r := newRadio()
		if err := r.SetToneFrequency(1000); err != nil {
			t.Fatal(err)
		}
		if err := r.SetTuneFrequency(1000); err != nil {
			t.Fatal(err)
		}

		for _, hz := range []float64{-1, limits.MaxToneHz + 1, math.NaN()} {
			if err := r.SetToneFrequency(hz); !errors.Is(err, adapter.ErrInvalidArgument) {
				t.Errorf("SetToneFrequency(%g) = %v, want INVALID_ARGUMENT", hz, err)
			}
		}
		for _, hz := range []float64{-1, limits.MaxTuneHz + 1, math.NaN()} {
			if err := r.SetTuneFrequency(hz); !errors.Is(err, adapter.ErrInvalidArgument) {
				t.Errorf("SetTuneFrequency(%g) = %v, want INVALID_ARGUMENT", hz, err)
			}
		}

		if got := r.ToneFrequency(); math.Abs(got-1000) > limits.Resolution {
			t.Errorf("rejected write changed tone to %g", got)
		}
		if got := r.TuneFrequency(); math.Abs(got-1000) > limits.Resolution {
			t.Errorf("rejected write changed tune to %g", got)
		}
	})

	t.Run("ResetReflectedInStatus", func(t *testing.T) {
		r := newRadio()
		r.SetReset(true)
		if !r.Status().Reset {
			t.Error("Status().Reset = false after SetReset(true)")
		}
		r.SetReset(false)
		if r.Status().Reset {
			t.Error("Status().Reset = true after SetReset(false)")
		}
	})

	t.Run("Throughput", func(t *testing.T) {
		result := newRadio().MeasureThroughput()
		if result.Reads <= 0 || result.Bytes != result.Reads*4 {
			t.Errorf("MeasureThroughput() = %+v", result)
		}
	})
}

// RunCodecConformance runs the Codec contract suite.
func RunCodecConformance(t *testing.T, newCodec func() adapter.Codec) {
	t.Helper()

	t.Run("ConfigureSetsActive", func(t *testing.T) {
		c := newCodec()
		if err := c.Configure(context.Background()); err != nil {
			t.Fatalf("Configure() = %v", err)
		}
		active, err := c.Active()
		if err != nil || !active {
			t.Errorf("Active() = %v, %v after Configure", active, err)
		}
	})

	t.Run("ConfigureHonorsCancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := newCodec().Configure(ctx); err == nil {
			t.Error("Configure() with cancelled context succeeded")
		}
	})

	t.Run("VolumeLevels", func(t *testing.T) {
		c := newCodec()
		for level := 0; level <= 9; level++ {
			if err := c.SetVolume(level); err != nil {
				t.Fatalf("SetVolume(%d) = %v", level, err)
			}
			got, err := c.Volume()
			if err != nil || got != level {
				t.Errorf("Volume() = %d, %v after SetVolume(%d)", got, err, level)
			}
		}
	})

	t.Run("VolumeRejectsOutOfRange", func(t *testing.T) {
		c := newCodec()
		for _, level := range []int{-1, 10} {
			if err := c.SetVolume(level); !errors.Is(err, adapter.ErrInvalidArgument) {
				t.Errorf("SetVolume(%d) = %v, want INVALID_ARGUMENT", level, err)
			}
		}
	})

	t.Run("AdjustVolumeClamps", func(t *testing.T) {
		c := newCodec()
		if err := c.SetVolume(5); err != nil {
			t.Fatal(err)
		}
		if got, err := c.AdjustVolume(100); err != nil || got != 9 {
			t.Errorf("AdjustVolume(100) = %d, %v", got, err)
		}
		if got, err := c.AdjustVolume(-100); err != nil || got != 0 {
			t.Errorf("AdjustVolume(-100) = %d, %v", got, err)
		}
	})

	t.Run("RegisterRoundTrip", func(t *testing.T) {
		c := newCodec()
		for _, value := range []uint16{0x000, 0x010, 0x1FF} {
			if err := c.WriteRegister(0x04, value); err != nil {
				t.Fatalf("WriteRegister(0x04, %#x) = %v", value, err)
			}
			got, err := c.ReadRegister(0x04)
			if err != nil || got != value {
				t.Errorf("ReadRegister(0x04) = %#x, %v, want %#x", got, err, value)
			}
		}
	})

	t.Run("RegisterRejectsOutOfRange", func(t *testing.T) {
		c := newCodec()
		if err := c.WriteRegister(0x80, 0); !errors.Is(err, adapter.ErrInvalidArgument) {
			t.Errorf("WriteRegister(0x80) = %v", err)
		}
		if err := c.WriteRegister(0x04, 0x200); !errors.Is(err, adapter.ErrInvalidArgument) {
			t.Errorf("WriteRegister(value 0x200) = %v", err)
		}
	})

	t.Run("Dump", func(t *testing.T) {
		regs, err := newCodec().Dump()
		if err != nil || len(regs) == 0 {
			t.Errorf("Dump() = %v, %v", regs, err)
		}
	})
}
