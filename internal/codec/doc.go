// Package codec configures the audio codec that sits behind the AXI IIC
// master.
//
// Registers are 9 bits wide and addressed by a 7-bit index. A write is two
// bytes on the bus: the index shifted left with the value's ninth bit in the
// low position, then the value's low byte. Reads send the shifted index and
// decode the same two-byte layout.
//
// Power-up is a Recipe of register writes and delays. DefaultRecipe holds the
// board's sequence; deployments may supply their own.
package codec
