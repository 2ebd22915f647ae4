package codec

import (
	"context"
	"fmt"
	"math"
	"time"

	"tinygo.org/x/drivers"

	"github.com/radio-control/sdrfe/internal/adapter"
)

// Volume levels accepted by SetVolume.
const (
	MinVolume = 0
	MaxVolume = 9

	volumeStep   = 6
	volumeOffset = 47
	volumeMask   = 0x7F
)

// Option configures a Codec.
type Option func(*Codec)

// WithAddress overrides DefaultAddress.
func WithAddress(addr uint16) Option {
	return func(c *Codec) { c.addr = addr }
}

// WithRecipe replaces DefaultRecipe.
func WithRecipe(r Recipe) Option {
	return func(c *Codec) { c.recipe = r }
}

// WithSleep replaces the context-aware delay used between recipe steps.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Codec) { c.sleep = sleep }
}

// ErrShortRead is returned when a register read yields fewer than two bytes.
var ErrShortRead = fmt.Errorf("codec: short register read: %w", adapter.ErrIO)

// rawReader is implemented by buses, such as iic.Controller, whose reads
// return whatever the device placed in the receive FIFO.
type rawReader interface {
	Read(addr uint8, reg uint8, count int) ([]byte, error)
}

// Codec drives the codec over an I2C bus.
type Codec struct {
	bus    drivers.I2C
	addr   uint16
	recipe Recipe
	sleep  func(context.Context, time.Duration) error
}

var _ adapter.Codec = (*Codec)(nil)

// New returns a codec on bus.
func New(bus drivers.I2C, opts ...Option) *Codec {
	c := &Codec{
		bus:    bus,
		addr:   DefaultAddress,
		recipe: DefaultRecipe(),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Recipe returns the configured power-up sequence.
func (c *Codec) Recipe() Recipe { return c.recipe }

// Write stores a 9-bit value in reg.
func (c *Codec) Write(reg Register, value uint16) error {
	if reg > MaxRegister || value > MaxValue {
		return adapter.InvalidArgument("codec.Write", "register %#x value %#x out of range", uint8(reg), value)
	}
	b := encode(reg, value)
	if err := c.bus.Tx(c.addr, b[:], nil); err != nil {
		return adapter.Normalize("codec.Write", err, reg)
	}
	return nil
}

// Read fetches the 9-bit value of reg from the first two bytes returned.
func (c *Codec) Read(reg Register) (uint16, error) {
	b, err := c.ReadBytes(reg, 2)
	if err != nil {
		return 0, err
	}
	if len(b) < 2 {
		return 0, adapter.Normalize("codec.Read", ErrShortRead, reg)
	}
	return decode(b), nil
}

// ReadBytes performs a raw read of n bytes starting at reg. On a bus that
// supports it, the result holds every byte the device sent, which may be
// more or fewer than n.
func (c *Codec) ReadBytes(reg Register, n int) ([]byte, error) {
	if reg > MaxRegister {
		return nil, adapter.InvalidArgument("codec.Read", "register %#x is not 7-bit", uint8(reg))
	}
	if n < 1 {
		return nil, adapter.InvalidArgument("codec.Read", "byte count %d", n)
	}

	if r, ok := c.bus.(rawReader); ok && c.addr <= 0x7F {
		buf, err := r.Read(uint8(c.addr), byte(reg)<<1, n)
		if err != nil {
			return nil, adapter.Normalize("codec.Read", err, reg)
		}
		return buf, nil
	}

	buf := make([]byte, n)
	if err := c.bus.Tx(c.addr, []byte{byte(reg) << 1}, buf); err != nil {
		return nil, adapter.Normalize("codec.Read", err, reg)
	}
	return buf, nil
}

// ReadRegister implements adapter.Codec.
func (c *Codec) ReadRegister(reg uint8) (uint16, error) {
	return c.Read(Register(reg))
}

// WriteRegister implements adapter.Codec.
func (c *Codec) WriteRegister(reg uint8, value uint16) error {
	return c.Write(Register(reg), value)
}

// Configure executes the recipe in order. It stops at the first failing
// step and leaves the earlier writes in place.
func (c *Codec) Configure(ctx context.Context) error {
	for i, step := range c.recipe {
		if err := ctx.Err(); err != nil {
			return &StepError{Index: i, Step: step, Err: err}
		}
		if err := c.Write(step.Register, step.Value); err != nil {
			return &StepError{Index: i, Step: step, Err: err}
		}
		if step.Delay > 0 {
			if err := c.sleep(ctx, step.Delay); err != nil {
				return &StepError{Index: i, Step: step, Err: err}
			}
		}
	}
	return nil
}

// Active reports whether the digital core is enabled. The flag is bit 0 of
// the decoded register value, which arrives in the second byte of the read;
// the first byte carries only bit 8.
func (c *Codec) Active() (bool, error) {
	v, err := c.Read(Active)
	if err != nil {
		return false, err
	}
	return v&1 == 1, nil
}

// EnsureConfigured runs Configure only if the codec is not already active.
// It reports whether the recipe ran.
func (c *Codec) EnsureConfigured(ctx context.Context) (bool, error) {
	active, err := c.Active()
	if err != nil {
		return false, err
	}
	if active {
		return false, nil
	}
	return true, c.Configure(ctx)
}

// SetVolume writes level to both DAC channels, left first.
func (c *Codec) SetVolume(level int) error {
	if level < MinVolume || level > MaxVolume {
		return adapter.InvalidArgument("codec.SetVolume", "level %d outside [%d, %d]", level, MinVolume, MaxVolume)
	}
	v := VolumeValue(level)
	if err := c.Write(LeftDACVolume, v); err != nil {
		return err
	}
	return c.Write(RightDACVolume, v)
}

// Volume reads the left DAC channel back as a level.
func (c *Codec) Volume() (int, error) {
	v, err := c.Read(LeftDACVolume)
	if err != nil {
		return 0, err
	}
	return VolumeLevel(v), nil
}

// AdjustVolume moves the current level by delta, clamped to the valid range,
// and returns the new level.
func (c *Codec) AdjustVolume(delta int) (int, error) {
	level, err := c.Volume()
	if err != nil {
		return 0, err
	}
	level = min(max(level+delta, MinVolume), MaxVolume)
	return level, c.SetVolume(level)
}

// Dump reads every mapped register.
func (c *Codec) Dump() ([]adapter.RegisterValue, error) {
	out := make([]adapter.RegisterValue, 0, len(Registers))
	for _, reg := range Registers {
		v, err := c.Read(reg)
		if err != nil {
			return out, err
		}
		out = append(out, adapter.RegisterValue{Name: reg.String(), Address: uint8(reg), Value: v})
	}
	return out, nil
}

// VolumeValue maps a level to the DAC register value.
func VolumeValue(level int) uint16 {
	v := level*volumeStep + volumeOffset
	return uint16(min(max(v, 0), volumeMask))
}

// VolumeLevel maps a DAC register value to the nearest level.
func VolumeLevel(v uint16) int {
	level := int(math.Round(float64(int(v&volumeMask)-volumeOffset) / volumeStep))
	return min(max(level, MinVolume), MaxVolume)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
