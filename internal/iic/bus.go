package iic

import (
	"tinygo.org/x/drivers"

	"github.com/radio-control/sdrfe/internal/adapter"
)

var _ drivers.I2C = (*Controller)(nil)

// Tx performs a write when r is empty, otherwise a register read where w
// holds exactly the register byte. A read that yields fewer than len(r)
// bytes fills what it can and returns ErrShortRead.
func (c *Controller) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return adapter.InvalidArgument("iic.Tx", "address %#x is not 7-bit", addr)
	}
	if len(r) == 0 {
		return c.Write(uint8(addr), w)
	}
	if len(w) != 1 {
		return adapter.InvalidArgument("iic.Tx", "read needs a single register byte, got %d", len(w))
	}

	data, err := c.Read(uint8(addr), w[0], len(r))
	if err != nil {
		return err
	}
	n := copy(r, data)
	if n < len(r) {
		return ErrShortRead
	}
	return nil
}

// ReadRegister reads len(buf) bytes from register reg of device addr.
func (c *Controller) ReadRegister(addr uint8, reg uint8, buf []byte) error {
	return c.Tx(uint16(addr), []byte{reg}, buf)
}

// WriteRegister writes buf to register reg of device addr.
func (c *Controller) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	w := make([]byte, 0, len(buf)+1)
	w = append(w, reg)
	w = append(w, buf...)
	return c.Tx(uint16(addr), w, nil)
}
