// Package adapter defines the hardware contracts the control service drives
// and the normalized error codes every hardware path reports.
//
// Drivers (radio, codec, stream, iic) wrap their failures so that errors.Is
// against one of the codes below succeeds. Normalize folds anything else,
// such as raw os or mmap errors, into the same set.
package adapter
