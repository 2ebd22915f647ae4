package radio

import (
	"testing"

	"github.com/radio-control/sdrfe/internal/adapter"
	"github.com/radio-control/sdrfe/internal/adaptertest"
)

func TestControllerConformance(t *testing.T) {
	adaptertest.RunRadioConformance(t, func() adapter.Radio {
		c, _ := newController()
		return c
	}, adaptertest.RadioLimits{
		MaxToneHz:  DefaultClockHz,
		MaxTuneHz:  DefaultClockHz / 2,
		Resolution: 1,
	})
}
