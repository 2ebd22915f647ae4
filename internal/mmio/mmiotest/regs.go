// Package mmiotest provides an in-memory register file for driver tests.
package mmiotest

import (
	"sync"

	"github.com/radio-control/sdrfe/internal/mmio"
)

// Access records one register access.
type Access struct {
	Write  bool
	Offset uint32
	Value  uint32
}

// Regs is an in-memory mmio.Registers. Reads and writes can be intercepted
// per offset to model side effects such as FIFOs or clear-on-read counters.
type Regs struct {
	mu      sync.Mutex
	length  uint32
	values  map[uint32]uint32
	onRead  map[uint32]func() uint32
	onWrite map[uint32]func(uint32)
	log     []Access
	logging bool
}

var _ mmio.Registers = (*Regs)(nil)

// New returns a zeroed register file of length bytes.
func New(length uint32) *Regs {
	return &Regs{
		length:  length,
		values:  make(map[uint32]uint32),
		onRead:  make(map[uint32]func() uint32),
		onWrite: make(map[uint32]func(uint32)),
	}
}

// ReadU32 implements mmio.Registers.
func (r *Regs) ReadU32(offset uint32) uint32 {
	mmio.CheckOffset(offset, r.length)
	r.mu.Lock()
	hook := r.onRead[offset]
	r.mu.Unlock()

	var v uint32
	if hook != nil {
		v = hook()
	} else {
		r.mu.Lock()
		v = r.values[offset]
		r.mu.Unlock()
	}
	r.record(Access{Offset: offset, Value: v})
	return v
}

// WriteU32 implements mmio.Registers.
func (r *Regs) WriteU32(offset uint32, value uint32) {
	mmio.CheckOffset(offset, r.length)
	r.record(Access{Write: true, Offset: offset, Value: value})
	r.mu.Lock()
	hook := r.onWrite[offset]
	if hook == nil {
		r.values[offset] = value
	}
	r.mu.Unlock()
	if hook != nil {
		hook(value)
	}
}

// Set stores v without recording an access.
func (r *Regs) Set(offset, v uint32) {
	r.mu.Lock()
	r.values[offset] = v
	r.mu.Unlock()
}

// Get returns the stored value without recording an access.
func (r *Regs) Get(offset uint32) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.values[offset]
}

// OnRead replaces reads of offset with fn.
func (r *Regs) OnRead(offset uint32, fn func() uint32) {
	r.mu.Lock()
	r.onRead[offset] = fn
	r.mu.Unlock()
}

// OnWrite replaces stores to offset with fn.
func (r *Regs) OnWrite(offset uint32, fn func(uint32)) {
	r.mu.Lock()
	r.onWrite[offset] = fn
	r.mu.Unlock()
}

// Record starts logging accesses, discarding any previous log.
func (r *Regs) Record() {
	r.mu.Lock()
	r.log = nil
	r.logging = true
	r.mu.Unlock()
}

// Log returns a copy of the recorded accesses.
func (r *Regs) Log() []Access {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Access(nil), r.log...)
}

// Writes returns the recorded stores to offset, in order.
func (r *Regs) Writes(offset uint32) []uint32 {
	var out []uint32
	for _, a := range r.Log() {
		if a.Write && a.Offset == offset {
			out = append(out, a.Value)
		}
	}
	return out
}

func (r *Regs) record(a Access) {
	r.mu.Lock()
	if r.logging {
		r.log = append(r.log, a)
	}
	r.mu.Unlock()
}
