package codec

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/radio-control/sdrfe/internal/adapter"
	"github.com/radio-control/sdrfe/internal/iic"
	"github.com/radio-control/sdrfe/internal/iic/iictest"
)

// device models the codec's 9-bit register file on the emulated bus.
type device struct {
	regs   map[Register]uint16
	writes []Step
}

func newDevice() *device {
	return &device{regs: make(map[Register]uint16)}
}

func (d *device) Write(data []byte) {
	if len(data) != 2 {
		return
	}
	reg := Register(data[0] >> 1)
	v := decode(data)
	d.regs[reg] = v
	d.writes = append(d.writes, Step{Register: reg, Value: v})
}

func (d *device) Read(prefix []byte, n int) []byte {
	v := d.regs[Register(prefix[0]>>1)]
	out := []byte{byte(v>>8) & 1, byte(v)}
	if n < len(out) {
		out = out[:n]
	}
	return out
}

type sleepLog struct {
	delays []time.Duration
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func newCodec(t *testing.T) (*Codec, *device, *sleepLog) {
	t.Helper()
	bus := iictest.New()
	dev := newDevice()
	bus.Attach(DefaultAddress, dev)
	ctrl := iic.New(bus, iic.WithSleep(func(time.Duration) {}), iic.WithPollTimeout(time.Second))
	ctrl.Init()
	sl := &sleepLog{}
	return New(ctrl, WithSleep(sl.sleep)), dev, sl
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		reg   Register
		value uint16
		want  [2]byte
	}{
		{PowerManagement, 0x37, [2]byte{0x0C, 0x37}},
		{LeftADCVolume, 0x180, [2]byte{0x01, 0x80}},
		{Active, 0x01, [2]byte{0x12, 0x01}},
		{NoiseGate, 0x1FF, [2]byte{0x25, 0xFF}},
	}
	for _, tt := range tests {
		got := encode(tt.reg, tt.value)
		if got != tt.want {
			t.Errorf("encode(%v, %#x) = %#x, want %#x", tt.reg, tt.value, got, tt.want)
		}
		if back := decode(got[:]); back != tt.value {
			t.Errorf("decode(%#x) = %#x, want %#x", got, back, tt.value)
		}
	}
}

func TestWriteFraming(t *testing.T) {
	bus := iictest.New()
	c := New(iic.New(bus, iic.WithSleep(func(time.Duration) {})))

	if err := c.Write(PowerManagement, 0x137); err != nil {
		t.Fatal(err)
	}
	want := []uint32{iic.Start | 0x1A<<1, 0x0D, iic.Stop | 0x37}
	if got := bus.Words(); !reflect.DeepEqual(got, want) {
		t.Errorf("words = %#x, want %#x", got, want)
	}
}

func TestConfigureRunsDefaultRecipe(t *testing.T) {
	c, dev, sl := newCodec(t)

	if err := c.Configure(context.Background()); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	var want []Step
	for _, s := range DefaultRecipe() {
		want = append(want, Step{Register: s.Register, Value: s.Value})
	}
	if !reflect.DeepEqual(dev.writes, want) {
		t.Errorf("writes = %v, want %v", dev.writes, want)
	}
	wantDelays := []time.Duration{time.Millisecond, 75 * time.Millisecond, 75 * time.Millisecond}
	if !reflect.DeepEqual(sl.delays, wantDelays) {
		t.Errorf("delays = %v, want %v", sl.delays, wantDelays)
	}

	active, err := c.Active()
	if err != nil || !active {
		t.Errorf("Active = %v, %v", active, err)
	}
}

// failingBus accepts the first n writes, then fails.
type failingBus struct {
	n      int
	writes int
}

func (b *failingBus) Tx(addr uint16, w, r []byte) error {
	if b.writes >= b.n {
		return adapter.ErrHardwareTimeout
	}
	b.writes++
	return nil
}

func (b *failingBus) ReadRegister(addr uint8, r uint8, buf []byte) error {
	return b.Tx(uint16(addr), []byte{r}, buf)
}

func (b *failingBus) WriteRegister(addr uint8, r uint8, buf []byte) error {
	return b.Tx(uint16(addr), append([]byte{r}, buf...), nil)
}

func TestConfigureStopsAtFirstFailure(t *testing.T) {
	bus := &failingBus{n: 4}
	c := New(bus, WithSleep(func(context.Context, time.Duration) error { return nil }))

	err := c.Configure(context.Background())
	var se *StepError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StepError, got %v", err)
	}
	if se.Index != 4 || se.Step.Register != RightADCVolume {
		t.Errorf("stopped at step %d (%v)", se.Index, se.Step.Register)
	}
	if !errors.Is(err, adapter.ErrHardwareTimeout) {
		t.Errorf("cause lost: %v", err)
	}
	if bus.writes != 4 {
		t.Errorf("writes = %d, want 4 with no rollback", bus.writes)
	}
}

func TestConfigureHonorsCancellation(t *testing.T) {
	c, dev, _ := newCodec(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Configure(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(dev.writes) != 0 {
		t.Errorf("cancelled configure wrote %d registers", len(dev.writes))
	}
}

func TestEnsureConfigured(t *testing.T) {
	c, dev, _ := newCodec(t)

	ran, err := c.EnsureConfigured(context.Background())
	if err != nil || !ran {
		t.Fatalf("first EnsureConfigured = %v, %v", ran, err)
	}
	n := len(dev.writes)

	ran, err = c.EnsureConfigured(context.Background())
	if err != nil || ran {
		t.Fatalf("second EnsureConfigured = %v, %v", ran, err)
	}
	if len(dev.writes) != n {
		t.Error("active codec was reconfigured")
	}
}

func TestSetVolume(t *testing.T) {
	c, dev, _ := newCodec(t)

	for level := MinVolume; level <= MaxVolume; level++ {
		dev.writes = nil
		if err := c.SetVolume(level); err != nil {
			t.Fatalf("SetVolume(%d): %v", level, err)
		}
		v := uint16(level*6 + 47)
		want := []Step{{Register: LeftDACVolume, Value: v}, {Register: RightDACVolume, Value: v}}
		if !reflect.DeepEqual(dev.writes, want) {
			t.Errorf("level %d writes = %v", level, dev.writes)
		}
		got, err := c.Volume()
		if err != nil || got != level {
			t.Errorf("Volume() = %d, %v, want %d", got, err, level)
		}
	}
}

func TestSetVolumeRejectsOutOfRange(t *testing.T) {
	c, dev, _ := newCodec(t)
	for _, level := range []int{-1, 10, 100} {
		if err := c.SetVolume(level); !errors.Is(err, adapter.ErrInvalidArgument) {
			t.Errorf("SetVolume(%d) = %v", level, err)
		}
	}
	if len(dev.writes) != 0 {
		t.Errorf("rejected volume wrote %v", dev.writes)
	}
}

func TestAdjustVolume(t *testing.T) {
	c, _, _ := newCodec(t)
	if err := c.SetVolume(8); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		delta int
		want  int
	}{
		{+1, 9},
		{+1, 9},
		{-3, 6},
		{-20, 0},
	}
	for _, tt := range tests {
		got, err := c.AdjustVolume(tt.delta)
		if err != nil || got != tt.want {
			t.Errorf("AdjustVolume(%+d) = %d, %v, want %d", tt.delta, got, err, tt.want)
		}
	}
}

func TestVolumeLevel(t *testing.T) {
	tests := []struct {
		value uint16
		want  int
	}{
		{0x47, 4},  // recipe default
		{0x00, 0},  // below level 0
		{0x7F, 9},  // above level 9
		{0x1D9, 7}, // bits above the volume field ignored
		{48, 0},
		{51, 1},
	}
	for _, tt := range tests {
		if got := VolumeLevel(tt.value); got != tt.want {
			t.Errorf("VolumeLevel(%#x) = %d, want %d", tt.value, got, tt.want)
		}
	}
}

func TestDump(t *testing.T) {
	c, dev, _ := newCodec(t)
	dev.regs[SamplingRate] = 0x123

	regs, err := c.Dump()
	if err != nil {
		t.Fatal(err)
	}
	if len(regs) != len(Registers) {
		t.Fatalf("dumped %d registers", len(regs))
	}
	for _, r := range regs {
		if Register(r.Address) == SamplingRate && (r.Value != 0x123 || r.Name != "sampling-rate") {
			t.Errorf("sampling rate = %+v", r)
		}
	}
}

func TestRawRegisterAccess(t *testing.T) {
	c, dev, _ := newCodec(t)

	if err := c.WriteRegister(0x05, 0x101); err != nil {
		t.Fatal(err)
	}
	if dev.regs[DigitalAudioPath] != 0x101 {
		t.Errorf("stored %#x", dev.regs[DigitalAudioPath])
	}
	v, err := c.ReadRegister(0x05)
	if err != nil || v != 0x101 {
		t.Errorf("ReadRegister = %#x, %v", v, err)
	}
	b, err := c.ReadBytes(DigitalAudioPath, 1)
	if err != nil || !reflect.DeepEqual(b, []byte{0x01}) {
		t.Errorf("ReadBytes = %#x, %v", b, err)
	}

	if err := c.WriteRegister(0x80, 0); !errors.Is(err, adapter.ErrInvalidArgument) {
		t.Errorf("8-bit register: %v", err)
	}
	if err := c.WriteRegister(0x01, 0x200); !errors.Is(err, adapter.ErrInvalidArgument) {
		t.Errorf("10-bit value: %v", err)
	}
}

func TestParseRegister(t *testing.T) {
	tests := []struct {
		in      string
		want    Register
		wantErr bool
	}{
		{"active", Active, false},
		{"Left-DAC-Volume", LeftDACVolume, false},
		{"0x12", NoiseGate, false},
		{"9", Active, false},
		{"0x80", 0, true},
		{"volume", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseRegister(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseRegister(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestRecipeValidate(t *testing.T) {
	if err := DefaultRecipe().Validate(); err != nil {
		t.Fatalf("default recipe invalid: %v", err)
	}
	bad := Recipe{{Register: Active, Value: 0x200}}
	if err := bad.Validate(); err == nil {
		t.Error("9-bit overflow accepted")
	}
}

// fixedReply answers every read with the same bytes, whatever was asked for.
type fixedReply []byte

func (f fixedReply) Write([]byte) {}

func (f fixedReply) Read([]byte, int) []byte { return append([]byte(nil), f...) }

func newCodecReplying(reply ...byte) *Codec {
	bus := iictest.New()
	bus.Attach(DefaultAddress, fixedReply(reply))
	ctrl := iic.New(bus, iic.WithSleep(func(time.Duration) {}), iic.WithPollTimeout(time.Second))
	ctrl.Init()
	return New(ctrl)
}

func TestReadBytesReturnsWhatDeviceSent(t *testing.T) {
	tests := []struct {
		name  string
		reply []byte
	}{
		{"fewer", []byte{0x01}},
		{"exact", []byte{0x01, 0x02}},
		{"more", []byte{0x01, 0x02, 0x03}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCodecReplying(tt.reply...)
			b, err := c.ReadBytes(LeftDACVolume, 2)
			if err != nil {
				t.Fatalf("ReadBytes: %v", err)
			}
			if !reflect.DeepEqual(b, tt.reply) {
				t.Errorf("ReadBytes = %#x, want %#x", b, tt.reply)
			}
		})
	}
}

func TestReadNeedsTwoBytes(t *testing.T) {
	if _, err := newCodecReplying(0x01).Read(LeftDACVolume); !errors.Is(err, ErrShortRead) || !errors.Is(err, adapter.ErrIO) {
		t.Errorf("one-byte reply: %v", err)
	}

	v, err := newCodecReplying(0x01, 0x02, 0x03).Read(LeftDACVolume)
	if err != nil || v != 0x102 {
		t.Errorf("three-byte reply: %#x, %v", v, err)
	}
}

// The active flag lives in the second byte; a set first byte is bit 8 only.
func TestActiveUsesLowBit(t *testing.T) {
	tests := []struct {
		reply []byte
		want  bool
	}{
		{[]byte{0x00, 0x01}, true},
		{[]byte{0x01, 0x00}, false},
		{[]byte{0x01, 0x01}, true},
		{[]byte{0x00, 0x00}, false},
		{[]byte{0x00, 0x02}, false},
	}
	for _, tt := range tests {
		got, err := newCodecReplying(tt.reply...).Active()
		if err != nil || got != tt.want {
			t.Errorf("Active with %#x = %v, %v, want %v", tt.reply, got, err, tt.want)
		}
	}
}
