package mmio

// Reg32 is a single named register at a fixed offset in a window.
type Reg32 struct {
	regs   Registers
	offset uint32
}

// NewReg32 binds a register to offset within regs.
func NewReg32(regs Registers, offset uint32) Reg32 {
	return Reg32{regs: regs, offset: offset}
}

// Offset returns the byte offset of the register.
func (r Reg32) Offset() uint32 { return r.offset }

// Read loads the register.
func (r Reg32) Read() uint32 { return r.regs.ReadU32(r.offset) }

// Write stores v.
func (r Reg32) Write(v uint32) { r.regs.WriteU32(r.offset, v) }

// Bit reports whether every bit in mask is set. It performs one read.
func (r Reg32) Bit(mask uint32) bool { return r.Read()&mask == mask }

// Set performs a read-modify-write that sets mask.
func (r Reg32) Set(mask uint32) { r.Write(r.Read() | mask) }

// Clear performs a read-modify-write that clears mask.
func (r Reg32) Clear(mask uint32) { r.Write(r.Read() &^ mask) }
