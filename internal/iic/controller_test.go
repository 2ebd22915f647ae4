package iic_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/radio-control/sdrfe/internal/adapter"
	"github.com/radio-control/sdrfe/internal/iic"
	"github.com/radio-control/sdrfe/internal/iic/iictest"
)

func newController(t *testing.T, opts ...iic.Option) (*iic.Controller, *iictest.Device) {
	t.Helper()
	dev := iictest.New()
	opts = append([]iic.Option{iic.WithSleep(func(time.Duration) {})}, opts...)
	return iic.New(dev, opts...), dev
}

func TestInitSequence(t *testing.T) {
	dev := iictest.New()
	var slept []time.Duration
	c := iic.New(dev, iic.WithSleep(func(d time.Duration) { slept = append(slept, d) }))

	if c.State() != iic.Uninitialized {
		t.Fatalf("initial state = %v", c.State())
	}

	dev.Record()
	c.Init()

	var got []uint32
	for _, a := range dev.Log() {
		if a.Write {
			got = append(got, a.Offset, a.Value)
		}
	}
	want := []uint32{iic.RegCR, 0x2, iic.RegRxFIFOPirq, 0xF, iic.RegCR, 0x1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("writes = %#x, want %#x", got, want)
	}
	if !reflect.DeepEqual(slept, []time.Duration{time.Millisecond}) {
		t.Errorf("slept %v, want [1ms]", slept)
	}
	if c.State() != iic.Idle {
		t.Errorf("state after Init = %v", c.State())
	}

	c.Init()
	if len(slept) != 2 {
		t.Errorf("second Init did not repeat the settle delay")
	}
}

func TestSoftReset(t *testing.T) {
	c, dev := newController(t)
	c.SoftReset()
	if got := dev.Get(iic.RegSOFTR); got != 0xA {
		t.Errorf("SOFTR = %#x, want 0xA", got)
	}
	if c.State() != iic.Uninitialized {
		t.Errorf("SoftReset changed uninitialized state to %v", c.State())
	}
}

func TestStatusFlags(t *testing.T) {
	c, dev := newController(t)

	if !c.TxFIFOEmpty() || !c.RxFIFOEmpty() || c.BusBusy() {
		t.Fatal("idle device reported wrong flags")
	}
	dev.SetBusy(true)
	dev.QueueRx(0x42)
	if c.RxFIFOEmpty() || !c.BusBusy() {
		t.Error("flags did not follow device state")
	}
}

func TestWriteFraming(t *testing.T) {
	tests := []struct {
		name    string
		addr    uint8
		payload []byte
		want    []uint32
	}{
		{"codec register", 0x1A, []byte{0x0C, 0x37}, []uint32{0x134, 0x0C, 0x237}},
		{"single byte", 0x1A, []byte{0x55}, []uint32{0x134, 0x255}},
		{"three bytes", 0x50, []byte{1, 2, 3}, []uint32{0x1A0, 1, 2, 0x203}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, dev := newController(t)
			if err := c.Write(tt.addr, tt.payload); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if got := dev.Words(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("words = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestWriteRejectsBadArguments(t *testing.T) {
	c, dev := newController(t)
	if err := c.Write(0x80, []byte{1}); !errors.Is(err, adapter.ErrInvalidArgument) {
		t.Errorf("8-bit address: %v", err)
	}
	if err := c.Write(0x1A, nil); !errors.Is(err, adapter.ErrInvalidArgument) {
		t.Errorf("empty payload: %v", err)
	}
	if len(dev.Words()) != 0 {
		t.Error("rejected write touched the FIFO")
	}
}

func TestReadFramingAndDrain(t *testing.T) {
	c, dev := newController(t)
	mem := &iictest.Memory{}
	mem.Data[0x12] = 0x01
	mem.Data[0x13] = 0x7F
	dev.Attach(0x1A, mem)

	got, err := c.Read(0x1A, 0x12, 2)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(got, []byte{0x01, 0x7F}) {
		t.Errorf("data = %#x", got)
	}
	want := []uint32{0x134, 0x12, 0x135, 0x202}
	if w := dev.Words(); !reflect.DeepEqual(w, want) {
		t.Errorf("words = %#x, want %#x", w, want)
	}
	if c.State() != iic.Idle {
		t.Errorf("state = %v", c.State())
	}
}

type chattyTarget struct{}

func (chattyTarget) Write([]byte) {}

func (chattyTarget) Read(_ []byte, n int) []byte {
	out := make([]byte, n+1)
	for i := range out {
		out[i] = byte(i)
	}
	return out
}

func TestReadReturnsWhateverFIFOHeld(t *testing.T) {
	c, dev := newController(t)
	dev.Attach(0x1A, chattyTarget{})

	got, err := c.Read(0x1A, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []byte{0, 1, 2}) {
		t.Errorf("data = %#x, want all three FIFO bytes", got)
	}
	if !c.RxFIFOEmpty() {
		t.Error("RX FIFO not drained")
	}
}

func TestPollTimeout(t *testing.T) {
	c, dev := newController(t, iic.WithPollTimeout(5*time.Millisecond))
	dev.SetBusy(true)

	err := c.Write(0x1A, []byte{0, 0})
	if !errors.Is(err, iic.ErrTimeout) || !errors.Is(err, adapter.ErrHardwareTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if c.State() != iic.Fault {
		t.Errorf("state = %v, want fault", c.State())
	}

	dev.SetBusy(false)
	if err := c.Write(0x1A, []byte{0, 0}); err != nil {
		t.Fatalf("write after fault: %v", err)
	}
	if c.State() != iic.Idle {
		t.Errorf("state = %v, want idle", c.State())
	}
}

func TestReadTimesOutWithoutTarget(t *testing.T) {
	c, _ := newController(t, iic.WithPollTimeout(5*time.Millisecond))
	if _, err := c.Read(0x33, 0, 1); !errors.Is(err, adapter.ErrHardwareTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[iic.State]string{
		iic.Uninitialized: "uninitialized",
		iic.Fault:         "fault",
		iic.State(9):      "State(9)",
	} {
		if s.String() != want {
			t.Errorf("%d.String() = %q", int(s), s.String())
		}
	}
}
