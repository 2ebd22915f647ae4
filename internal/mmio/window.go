package mmio

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DevMem is the character device exposing physical memory.
const DevMem = "/dev/mem"

// ErrMap is returned when a window cannot be opened or mapped.
var ErrMap = errors.New("mmio: map failed")

// Registers is a window of 32-bit registers addressed by byte offset.
type Registers interface {
	ReadU32(offset uint32) uint32
	WriteU32(offset uint32, value uint32)
}

// Window is a mapped physical register region. It owns one mapping for its
// lifetime and must be closed explicitly.
type Window struct {
	base   uint64
	length uint32

	mem  []byte // whole mapping, page aligned
	regs []byte // view starting at base
}

// Open maps length bytes of physical memory starting at base through the
// device at path (normally DevMem). base need not be page aligned.
func Open(path string, base uint64, length uint32) (*Window, error) {
	if length == 0 || length%4 != 0 {
		return nil, fmt.Errorf("%w: length %#x is not a positive multiple of 4", ErrMap, length)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrMap, path, err)
	}
	// The mapping stays valid after the descriptor is closed.
	defer f.Close()

	page := uint64(os.Getpagesize())
	start := base &^ (page - 1)
	skew := base - start
	size := int(skew + uint64(length))

	mem, err := unix.Mmap(int(f.Fd()), int64(start), size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %#x+%#x: %w", ErrMap, base, length, err)
	}

	return &Window{
		base:   base,
		length: length,
		mem:    mem,
		regs:   mem[skew:],
	}, nil
}

// Base returns the physical base address of the window.
func (w *Window) Base() uint64 { return w.base }

// Len returns the window length in bytes.
func (w *Window) Len() uint32 { return w.length }

// ReadU32 performs one 32-bit load at offset.
// It panics if offset is unaligned, out of range, or the window is closed.
func (w *Window) ReadU32(offset uint32) uint32 {
	return atomic.LoadUint32(w.word(offset))
}

// WriteU32 performs one 32-bit store at offset.
// It panics if offset is unaligned, out of range, or the window is closed.
func (w *Window) WriteU32(offset uint32, value uint32) {
	atomic.StoreUint32(w.word(offset), value)
}

func (w *Window) word(offset uint32) *uint32 {
	if w.regs == nil {
		panic("mmio: access to closed window")
	}
	CheckOffset(offset, w.length)
	return (*uint32)(unsafe.Pointer(&w.regs[offset]))
}

// Close unmaps the window. Closing twice is a no-op.
func (w *Window) Close() error {
	if w.mem == nil {
		return nil
	}
	mem := w.mem
	w.mem, w.regs = nil, nil
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("mmio: munmap %#x: %w", w.base, err)
	}
	return nil
}

// CheckOffset panics unless a 32-bit access at offset lies inside a window of
// length bytes and is 4-byte aligned.
func CheckOffset(offset, length uint32) {
	if offset%4 != 0 {
		panic(fmt.Sprintf("mmio: unaligned offset %#x", offset))
	}
	if uint64(offset)+4 > uint64(length) {
		panic(fmt.Sprintf("mmio: offset %#x outside window of %#x bytes", offset, length))
	}
}
