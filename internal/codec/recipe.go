package codec

import (
	"fmt"
	"time"
)

// Step is one register write followed by an optional delay.
type Step struct {
	Register Register
	Value    uint16
	Delay    time.Duration
}

// Recipe is an ordered configuration sequence.
type Recipe []Step

// DefaultRecipe returns the power-up sequence for the board's codec:
// reset, power the blocks except the output stage, set input and output
// levels and the audio interface, let the references settle, enable the
// output stage and finally activate the digital core.
func DefaultRecipe() Recipe {
	return Recipe{
		{Register: SoftwareReset, Value: 0x00, Delay: time.Millisecond},
		{Register: PowerManagement, Value: 0x37},
		{Register: PowerManagement, Value: 0x37},
		{Register: LeftADCVolume, Value: 0x80},
		{Register: RightADCVolume, Value: 0x80},
		{Register: LeftDACVolume, Value: 0x47},
		{Register: RightDACVolume, Value: 0x47},
		{Register: AnalogAudioPath, Value: 0x10},
		{Register: DigitalAudioPath, Value: 0x00},
		{Register: DigitalAudioIF, Value: 0x02},
		{Register: SamplingRate, Value: 0x00, Delay: 75 * time.Millisecond},
		{Register: PowerManagement, Value: 0x27, Delay: 75 * time.Millisecond},
		{Register: Active, Value: 0x01},
	}
}

// Validate checks every step fits the register encoding.
func (r Recipe) Validate() error {
	for i, s := range r {
		if s.Register > MaxRegister {
			return fmt.Errorf("step %d: register %#x is not 7-bit", i, uint8(s.Register))
		}
		if s.Value > MaxValue {
			return fmt.Errorf("step %d: value %#x is not 9-bit", i, s.Value)
		}
		if s.Delay < 0 {
			return fmt.Errorf("step %d: negative delay %v", i, s.Delay)
		}
	}
	return nil
}

// StepError reports the step at which Configure stopped. Earlier steps have
// already taken effect.
type StepError struct {
	Index int
	Step  Step
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("codec configure step %d (%v=%#x): %v", e.Index, e.Step.Register, e.Step.Value, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
