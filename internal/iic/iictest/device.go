// Package iictest emulates an AXI IIC controller and the devices on its bus
// behind an in-memory register file.
package iictest

import (
	"sync"

	"github.com/radio-control/sdrfe/internal/iic"
	"github.com/radio-control/sdrfe/internal/mmio/mmiotest"
)

// Target is a device on the emulated bus.
type Target interface {
	// Write receives the bytes of a write transaction.
	Write(data []byte)
	// Read returns up to n bytes after a write phase of prefix.
	Read(prefix []byte, n int) []byte
}

// Device is an emulated AXI IIC controller. Words pushed to the TX FIFO are
// decoded immediately, so the TX FIFO always reads empty.
type Device struct {
	*mmiotest.Regs

	mu      sync.Mutex
	targets map[uint8]Target
	rx      []byte
	words   []uint32

	// decoder state
	addr    uint8
	reading bool
	open    bool
	pending []byte

	busy bool
}

// New returns a device with no targets.
func New() *Device {
	d := &Device{
		Regs:    mmiotest.New(iic.Size),
		targets: make(map[uint8]Target),
	}
	d.OnRead(iic.RegSR, d.status)
	d.OnRead(iic.RegRxFIFO, d.pop)
	d.OnWrite(iic.RegTxFIFO, d.push)
	return d
}

// Attach places t at the 7-bit address addr.
func (d *Device) Attach(addr uint8, t Target) {
	d.mu.Lock()
	d.targets[addr] = t
	d.mu.Unlock()
}

// SetBusy holds the bus busy flag.
func (d *Device) SetBusy(busy bool) {
	d.mu.Lock()
	d.busy = busy
	d.mu.Unlock()
}

// Words returns every TX FIFO word written so far.
func (d *Device) Words() []uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uint32(nil), d.words...)
}

// QueueRx places bytes in the RX FIFO directly.
func (d *Device) QueueRx(b ...byte) {
	d.mu.Lock()
	d.rx = append(d.rx, b...)
	d.mu.Unlock()
}

func (d *Device) status() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	sr := uint32(iic.SRTxEmpty)
	if len(d.rx) == 0 {
		sr |= iic.SRRxEmpty
	}
	if d.busy {
		sr |= iic.SRBusBusy
	}
	return sr
}

func (d *Device) pop() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.rx) == 0 {
		return 0
	}
	b := d.rx[0]
	d.rx = d.rx[1:]
	return uint32(b)
}

func (d *Device) push(w uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.words = append(d.words, w)

	if w&iic.Start != 0 {
		d.addr = uint8(w>>1) & 0x7F
		d.reading = w&1 == 1
		d.open = true
		if !d.reading {
			d.pending = d.pending[:0]
		}
		return
	}
	if !d.open {
		return
	}

	if d.reading {
		if w&iic.Stop != 0 {
			if t := d.targets[d.addr]; t != nil {
				d.rx = append(d.rx, t.Read(append([]byte(nil), d.pending...), int(w&0xFF))...)
			}
			d.open = false
			d.pending = d.pending[:0]
		}
		return
	}

	d.pending = append(d.pending, byte(w))
	if w&iic.Stop != 0 {
		if t := d.targets[d.addr]; t != nil {
			t.Write(append([]byte(nil), d.pending...))
		}
		d.open = false
		d.pending = d.pending[:0]
	}
}

// Memory is a byte-addressed Target: the first written byte sets a pointer
// and following bytes are stored at consecutive addresses.
type Memory struct {
	mu   sync.Mutex
	Data [256]byte
}

// Write implements Target.
func (m *Memory) Write(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(data) == 0 {
		return
	}
	ptr := data[0]
	for _, b := range data[1:] {
		m.Data[ptr] = b
		ptr++
	}
}

// Read implements Target.
func (m *Memory) Read(prefix []byte, n int) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ptr byte
	if len(prefix) > 0 {
		ptr = prefix[0]
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = m.Data[ptr]
		ptr++
	}
	return out
}
