package codec

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultAddress is the codec's 7-bit bus address.
const DefaultAddress = 0x1A

// Register is a codec register index.
type Register uint8

const (
	LeftADCVolume    Register = 0x00
	RightADCVolume   Register = 0x01
	LeftDACVolume    Register = 0x02
	RightDACVolume   Register = 0x03
	AnalogAudioPath  Register = 0x04
	DigitalAudioPath Register = 0x05
	PowerManagement  Register = 0x06
	DigitalAudioIF   Register = 0x07
	SamplingRate     Register = 0x08
	Active           Register = 0x09
	SoftwareReset    Register = 0x0F
	ALCControl1      Register = 0x10
	ALCControl2      Register = 0x11
	NoiseGate        Register = 0x12
)

// Registers lists every mapped register in address order.
var Registers = []Register{
	LeftADCVolume,
	RightADCVolume,
	LeftDACVolume,
	RightDACVolume,
	AnalogAudioPath,
	DigitalAudioPath,
	PowerManagement,
	DigitalAudioIF,
	SamplingRate,
	Active,
	SoftwareReset,
	ALCControl1,
	ALCControl2,
	NoiseGate,
}

var registerNames = map[Register]string{
	LeftADCVolume:    "left-adc-volume",
	RightADCVolume:   "right-adc-volume",
	LeftDACVolume:    "left-dac-volume",
	RightDACVolume:   "right-dac-volume",
	AnalogAudioPath:  "analog-audio-path",
	DigitalAudioPath: "digital-audio-path",
	PowerManagement:  "power-management",
	DigitalAudioIF:   "digital-audio-if",
	SamplingRate:     "sampling-rate",
	Active:           "active",
	SoftwareReset:    "software-reset",
	ALCControl1:      "alc-control-1",
	ALCControl2:      "alc-control-2",
	NoiseGate:        "noise-gate",
}

func (r Register) String() string {
	if name, ok := registerNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reg-%#02x", uint8(r))
}

// ParseRegister accepts a register name or a number in Go syntax
// ("0x09", "9").
func ParseRegister(s string) (Register, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for reg, name := range registerNames {
		if name == s {
			return reg, nil
		}
	}
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil || n > MaxRegister {
		return 0, fmt.Errorf("unknown codec register %q", s)
	}
	return Register(n), nil
}

// Limits of the register encoding.
const (
	MaxRegister = 0x7F
	MaxValue    = 0x1FF
)

// encode packs a register write into its two bus bytes.
func encode(reg Register, value uint16) [2]byte {
	return [2]byte{byte(reg)<<1 | byte(value>>8)&1, byte(value)}
}

// decode unpacks the two bytes of a register read.
func decode(b []byte) uint16 {
	return uint16(b[0]&1)<<8 | uint16(b[1])
}
