// Package mmio maps physical register windows into the process and exposes
// their 32-bit fields.
//
// A Window is a fixed (base, length) region of physical address space opened
// through /dev/mem. Every access is a single uncached 32-bit load or store;
// nothing is cached or batched, so reads of clear-on-read registers have
// exactly one side effect per call.
//
// Drivers in this module accept the Registers interface rather than *Window so
// they can be exercised against mmiotest.Regs.
package mmio
