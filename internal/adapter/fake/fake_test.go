package fake

import (
	"testing"

	"github.com/radio-control/sdrfe/internal/adapter"
	"github.com/radio-control/sdrfe/internal/adaptertest"
)

func TestRadioConformance(t *testing.T) {
	adaptertest.RunRadioConformance(t, func() adapter.Radio { return NewRadio() }, adaptertest.RadioLimits{
		MaxToneHz:  clockHz,
		MaxTuneHz:  clockHz / 2,
		Resolution: 0,
	})
}

func TestCodecConformance(t *testing.T) {
	adaptertest.RunCodecConformance(t, func() adapter.Codec { return NewCodec() })
}
