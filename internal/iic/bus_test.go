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

func TestTxWriteAndRead(t *testing.T) {
	c, dev := newController(t)
	mem := &iictest.Memory{}
	dev.Attach(0x50, mem)

	if err := c.WriteRegister(0x50, 0x10, []byte{0xAA, 0xBB}); err != nil {
		t.Fatalf("WriteRegister: %v", err)
	}
	buf := make([]byte, 2)
	if err := c.ReadRegister(0x50, 0x10, buf); err != nil {
		t.Fatalf("ReadRegister: %v", err)
	}
	if !reflect.DeepEqual(buf, []byte{0xAA, 0xBB}) {
		t.Errorf("read back %#x", buf)
	}
}

func TestTxArguments(t *testing.T) {
	c, _ := newController(t)
	tests := []struct {
		name string
		addr uint16
		w, r []byte
	}{
		{"ten-bit address", 0x3FF, []byte{0}, nil},
		{"no register byte", 0x1A, nil, make([]byte, 1)},
		{"two register bytes", 0x1A, []byte{0, 1}, make([]byte, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Tx(tt.addr, tt.w, tt.r); !errors.Is(err, adapter.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

type shortTarget struct{}

func (shortTarget) Write([]byte) {}

func (shortTarget) Read(_ []byte, n int) []byte { return []byte{0x5A} }

func TestTxShortRead(t *testing.T) {
	c, dev := newController(t, iic.WithPollTimeout(time.Second))
	dev.Attach(0x1A, shortTarget{})

	buf := make([]byte, 2)
	err := c.Tx(0x1A, []byte{0x04}, buf)
	if !errors.Is(err, iic.ErrShortRead) || !errors.Is(err, adapter.ErrIO) {
		t.Fatalf("expected short read, got %v", err)
	}
	if buf[0] != 0x5A {
		t.Errorf("partial data not copied: %#x", buf)
	}
}
