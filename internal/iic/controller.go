package iic

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/radio-control/sdrfe/internal/adapter"
	"github.com/radio-control/sdrfe/internal/mmio"
)

// ErrTimeout is returned when a bounded status poll expires.
var ErrTimeout = fmt.Errorf("iic: status poll timed out: %w", adapter.ErrHardwareTimeout)

// ErrShortRead is returned by Tx when the device returned fewer bytes than
// requested.
var ErrShortRead = fmt.Errorf("iic: short read: %w", adapter.ErrIO)

// DefaultSettleDelay is the pause between FIFO reset and enable in Init.
const DefaultSettleDelay = time.Millisecond

// State is the controller's protocol state.
type State int

const (
	Uninitialized State = iota
	Configured
	Idle
	Busy
	Fault
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Configured:
		return "configured"
	case Idle:
		return "idle"
	case Busy:
		return "busy"
	case Fault:
		return "fault"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithPollTimeout bounds every status poll. Zero (the default) polls forever.
func WithPollTimeout(d time.Duration) Option {
	return func(c *Controller) { c.pollTimeout = d }
}

// WithSettleDelay overrides the Init settle delay.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Controller) { c.settle = d }
}

// WithSleep replaces time.Sleep, for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Controller) { c.sleep = sleep }
}

// Controller is an AXI IIC master. Transactions are serialized internally;
// the hardware itself has no arbitration between processes.
type Controller struct {
	mu sync.Mutex

	softr mmio.Reg32
	cr    mmio.Reg32
	sr    mmio.Reg32
	tx    mmio.Reg32
	rx    mmio.Reg32
	pirq  mmio.Reg32

	pollTimeout time.Duration
	settle      time.Duration
	sleep       func(time.Duration)
	state       State
}

// New binds a controller to its register window.
func New(regs mmio.Registers, opts ...Option) *Controller {
	c := &Controller{
		softr:  mmio.NewReg32(regs, RegSOFTR),
		cr:     mmio.NewReg32(regs, RegCR),
		sr:     mmio.NewReg32(regs, RegSR),
		tx:     mmio.NewReg32(regs, RegTxFIFO),
		rx:     mmio.NewReg32(regs, RegRxFIFO),
		pirq:   mmio.NewReg32(regs, RegRxFIFOPirq),
		settle: DefaultSettleDelay,
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current protocol state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Init resets the TX FIFO, sets the RX FIFO depth and enables the core.
// Calling it again repeats the sequence including the settle delay.
func (c *Controller) Init() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cr.Write(CRTxFIFOReset)
	c.pirq.Write(rxFIFODepth)
	c.state = Configured
	c.sleep(c.settle)
	c.cr.Write(CREnable)
	c.state = Idle
}

// SoftReset writes the reset key. The controller does not need Init again.
func (c *Controller) SoftReset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.softr.Write(softResetKey)
	if c.state != Uninitialized {
		c.state = Idle
	}
}

// TxFIFOEmpty reports the TX FIFO empty flag.
func (c *Controller) TxFIFOEmpty() bool { return c.sr.Bit(SRTxEmpty) }

// RxFIFOEmpty reports the RX FIFO empty flag.
func (c *Controller) RxFIFOEmpty() bool { return c.sr.Bit(SRRxEmpty) }

// BusBusy reports the bus busy flag.
func (c *Controller) BusBusy() bool { return c.sr.Bit(SRBusBusy) }

// Write queues a write of payload to the 7-bit address addr. It returns once
// the words are in the TX FIFO; completion is observed by the next call's
// initial poll.
func (c *Controller) Write(addr uint8, payload []byte) error {
	if addr > 0x7F {
		return adapter.InvalidArgument("iic.Write", "address %#x is not 7-bit", addr)
	}
	if len(payload) == 0 {
		return adapter.InvalidArgument("iic.Write", "empty payload")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.poll("write", func(sr uint32) bool {
		return sr&SRTxEmpty != 0 && sr&SRBusBusy == 0
	}); err != nil {
		return err
	}

	c.state = Busy
	c.tx.Write(Start | uint32(addr)<<1)
	last := len(payload) - 1
	for _, b := range payload[:last] {
		c.tx.Write(uint32(b))
	}
	c.tx.Write(Stop | uint32(payload[last]))
	c.state = Idle
	return nil
}

// Read sends reg to addr, issues a repeated start for count bytes and drains
// the RX FIFO. The result holds whatever the FIFO produced, which may differ
// from count.
func (c *Controller) Read(addr uint8, reg uint8, count int) ([]byte, error) {
	if addr > 0x7F {
		return nil, adapter.InvalidArgument("iic.Read", "address %#x is not 7-bit", addr)
	}
	if count < 1 || count > 0xFF {
		return nil, adapter.InvalidArgument("iic.Read", "count %d outside [1, 255]", count)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.poll("read", func(sr uint32) bool {
		return sr&SRTxEmpty != 0 && sr&SRRxEmpty != 0 && sr&SRBusBusy == 0
	}); err != nil {
		return nil, err
	}

	c.state = Busy
	c.tx.Write(Start | uint32(addr)<<1)
	c.tx.Write(uint32(reg))
	c.tx.Write(Start | uint32(addr)<<1 | 1)
	c.tx.Write(Stop | uint32(count))

	if err := c.poll("read data", func(sr uint32) bool {
		return sr&SRRxEmpty == 0
	}); err != nil {
		return nil, err
	}

	data := make([]byte, 0, count)
	for !c.sr.Bit(SRRxEmpty) {
		data = append(data, byte(c.rx.Read()))
	}
	c.state = Idle
	return data, nil
}

// poll spins on the status register until ready reports true. Caller holds mu.
func (c *Controller) poll(what string, ready func(sr uint32) bool) error {
	var deadline time.Time
	if c.pollTimeout > 0 {
		deadline = time.Now().Add(c.pollTimeout)
	}
	for {
		sr := c.sr.Read()
		if ready(sr) {
			return nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			c.state = Fault
			log.Printf("[iic] %s: status %#x not ready after %v", what, sr, c.pollTimeout)
			return fmt.Errorf("%s with status %#x: %w", what, sr, ErrTimeout)
		}
	}
}
