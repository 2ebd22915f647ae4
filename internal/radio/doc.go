// Package radio controls the DDS radio peripheral: the fake-ADC tone
// generator, the digital down-converter, the reset line and the free-running
// timer.
//
// Frequencies are programmed as phase increments of a PhaseWidth-bit
// accumulator clocked at ClockHz. The conversion helpers are exported so the
// arithmetic can be checked without hardware.
package radio
