package stream

import (
	"github.com/radio-control/sdrfe/internal/mmio"
)

// Register offsets within the FIFO window.
const (
	RegEmpty    = 0x00 // Non-zero while no sample is available
	RegData     = 0x04 // Next sample word; reading pops it
	RegOverflow = 0x08 // Samples dropped by hardware, cleared on read
	RegReserved = 0x0C

	// Size is the length of the register window.
	Size = 0x10
)

// BytesPerSample is the width of one IQ sample word.
const BytesPerSample = 4

// FIFO is the sample FIFO register block.
type FIFO struct {
	empty    mmio.Reg32
	data     mmio.Reg32
	overflow mmio.Reg32
}

// NewFIFO binds the FIFO registers in regs.
func NewFIFO(regs mmio.Registers) *FIFO {
	return &FIFO{
		empty:    mmio.NewReg32(regs, RegEmpty),
		data:     mmio.NewReg32(regs, RegData),
		overflow: mmio.NewReg32(regs, RegOverflow),
	}
}

// Empty reports whether no sample is waiting.
func (f *FIFO) Empty() bool { return f.empty.Read() != 0 }

// Data pops one sample word.
func (f *FIFO) Data() uint32 { return f.data.Read() }

// Overflow reads and clears the hardware overflow counter.
func (f *FIFO) Overflow() uint32 { return f.overflow.Read() }
