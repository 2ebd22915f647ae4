// Package board opens the register windows named by the devices config and
// binds the radio, I2C master, codec and IQ FIFO drivers to them.
package board

import (
	"errors"
	"fmt"
	"log"

	"github.com/radio-control/sdrfe/internal/codec"
	"github.com/radio-control/sdrfe/internal/config"
	"github.com/radio-control/sdrfe/internal/iic"
	"github.com/radio-control/sdrfe/internal/mmio"
	"github.com/radio-control/sdrfe/internal/radio"
	"github.com/radio-control/sdrfe/internal/stream"
)

// Part selects which peripherals Open brings up.
type Part uint8

const (
	Radio Part = 1 << iota
	Codec
	FIFO

	All = Radio | Codec | FIFO
)

// Board holds the drivers for the opened parts. Fields for parts that were
// not requested are nil.
type Board struct {
	Radio *radio.Controller
	IIC   *iic.Controller
	Codec *codec.Codec
	FIFO  *stream.FIFO

	windows []*mmio.Window
}

// Open maps the windows for parts and initializes the I2C master when the
// codec is requested. The codec itself is not configured.
func Open(cfg *config.Config, parts Part) (*Board, error) {
	b := &Board{}
	d := cfg.Devices

	if parts&Radio != 0 {
		w, err := b.open("radio", d.MemPath, d.RadioBase, d.RadioSize)
		if err != nil {
			return nil, err
		}
		b.Radio = radio.New(w, cfg.RadioSettings())
	}

	if parts&Codec != 0 {
		w, err := b.open("iic", d.MemPath, d.IICBase, d.IICSize)
		if err != nil {
			return nil, err
		}
		recipe, err := cfg.CodecRecipe()
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("codec recipe: %w", err)
		}
		b.IIC = iic.New(w,
			iic.WithPollTimeout(cfg.IIC.PollTimeout),
			iic.WithSettleDelay(cfg.IIC.SettleDelay))
		b.IIC.Init()
		b.Codec = codec.New(b.IIC,
			codec.WithAddress(cfg.Codec.Address),
			codec.WithRecipe(recipe))
	}

	if parts&FIFO != 0 {
		w, err := b.open("fifo", d.MemPath, d.FIFOBase, d.FIFOSize)
		if err != nil {
			return nil, err
		}
		b.FIFO = stream.NewFIFO(w)
	}

	return b, nil
}

func (b *Board) open(name, path string, base uint64, size uint32) (*mmio.Window, error) {
	w, err := mmio.Open(path, base, size)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("%s window: %w", name, err)
	}
	log.Printf("[board] %s window mapped at %#x (%#x bytes)", name, base, size)
	b.windows = append(b.windows, w)
	return w, nil
}

// Close unmaps every window. The drivers must not be used afterwards.
func (b *Board) Close() error {
	var errs []error
	for _, w := range b.windows {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.windows = nil
	return errors.Join(errs...)
}
