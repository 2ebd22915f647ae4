package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/radio-control/sdrfe/internal/adapter"
	"github.com/radio-control/sdrfe/internal/codec"
)

const defaultReadBytes = 2

// access is a single raw register read or write from the command line.
type access struct {
	write bool
	reg   codec.Register
	data  uint16
}

// parseAccess decodes "read|write <reg> <data>". No arguments yield nil.
// The read and write verbs may be abbreviated to r, rd, w or wr.
func parseAccess(args []string) (*access, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) > 3 {
		return nil, fmt.Errorf("too many arguments: %q", args[3:])
	}

	a := &access{}
	switch strings.ToLower(args[0]) {
	case "read", "rd", "r":
		a.data = defaultReadBytes
	case "write", "wr", "w":
		a.write = true
	default:
		return nil, fmt.Errorf("unknown access %q, want read or write", args[0])
	}

	if len(args) > 1 {
		reg, err := parseRegister(args[1])
		if err != nil {
			return nil, err
		}
		a.reg = reg
	}
	if len(args) > 2 {
		v, err := parseHex(args[2], 16)
		if err != nil {
			return nil, fmt.Errorf("data %q: %w", args[2], err)
		}
		a.data = uint16(v)
	}
	if a.write && len(args) < 3 {
		return nil, fmt.Errorf("write needs a register and a value")
	}
	return a, nil
}

func (a *access) do(c *codec.Codec) error {
	if a.write {
		fmt.Printf("Writing 0x%03x to register 0x%02x\n", a.data, uint8(a.reg))
		return c.Write(a.reg, a.data)
	}

	fmt.Printf("Reading register 0x%02x\n", uint8(a.reg))
	if a.data == 0 {
		fmt.Println("[]")
		return nil
	}
	b, err := c.ReadBytes(a.reg, int(a.data))
	if err != nil {
		return err
	}
	fmt.Println(formatBytes(b))
	return nil
}

func parseRegister(s string) (codec.Register, error) {
	if v, err := parseHex(s, 8); err == nil {
		if v > codec.MaxRegister {
			return 0, fmt.Errorf("register %#x is not 7-bit", v)
		}
		return codec.Register(v), nil
	}
	return codec.ParseRegister(s)
}

func parseHex(s string, bits int) (uint64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	return strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, bits)
}

func formatBytes(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("0x%02x", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// formatRegister renders one dump line: address, name and 9-bit value.
func formatRegister(r adapter.RegisterValue) string {
	return fmt.Sprintf("0x%02x %-20s 0x%03x", r.Address, r.Name, r.Value)
}
