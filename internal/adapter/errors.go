package adapter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"

	"github.com/radio-control/sdrfe/internal/mmio"
)

// Normalized hardware error codes.
var (
	ErrIO              = errors.New("IO_ERROR")
	ErrInvalidArgument = errors.New("INVALID_ARGUMENT")
	ErrHardwareTimeout = errors.New("HARDWARE_TIMEOUT")
	ErrBusy            = errors.New("BUSY")
	ErrUnavailable     = errors.New("UNAVAILABLE")
	ErrInternal        = errors.New("INTERNAL")
)

// codes lists the normalized codes in match priority.
var codes = []error{
	ErrInvalidArgument,
	ErrHardwareTimeout,
	ErrIO,
	ErrBusy,
	ErrUnavailable,
	ErrInternal,
}

// ErrorMapping maps a low-level error to a normalized code.
type ErrorMapping struct {
	Match error
	Code  error
}

// ErrorMappings is the table Normalize consults after the codes themselves.
// Entries are checked in order with errors.Is.
var ErrorMappings = []ErrorMapping{
	{Match: mmio.ErrMap, Code: ErrIO},
	{Match: fs.ErrNotExist, Code: ErrIO},
	{Match: fs.ErrPermission, Code: ErrIO},
	{Match: os.ErrClosed, Code: ErrIO},
	{Match: syscall.EIO, Code: ErrIO},
	{Match: syscall.ENXIO, Code: ErrIO},
	{Match: context.DeadlineExceeded, Code: ErrHardwareTimeout},
	{Match: syscall.EBUSY, Code: ErrBusy},
	{Match: syscall.EAGAIN, Code: ErrBusy},
}

// HardwareError carries a normalized code together with the failing
// operation and the original error for diagnostics.
type HardwareError struct {
	Code     error       // Normalized code
	Op       string      // Operation, e.g. "codec.SetVolume"
	Original error       // Underlying error
	Details  interface{} // Optional payload (register, address, ...)
}

func (e *HardwareError) Error() string {
	if e.Original == nil || e.Original == e.Code {
		return fmt.Sprintf("%s: %v", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %v (%v)", e.Op, e.Code, e.Original)
}

// Unwrap exposes the normalized code so errors.Is(err, ErrIO) works.
func (e *HardwareError) Unwrap() error {
	return e.Code
}

// Code returns the normalized code for err. nil maps to nil and anything
// unrecognized maps to ErrInternal.
func Code(err error) error {
	if err == nil {
		return nil
	}
	for _, code := range codes {
		if errors.Is(err, code) {
			return code
		}
	}
	for _, m := range ErrorMappings {
		if errors.Is(err, m.Match) {
			return m.Code
		}
	}
	return ErrInternal
}

// Normalize wraps err in a HardwareError tagged with op. Errors already
// carrying a HardwareError are returned unchanged.
func Normalize(op string, err error, details interface{}) error {
	if err == nil {
		return nil
	}
	var hw *HardwareError
	if errors.As(err, &hw) {
		return err
	}
	return &HardwareError{
		Code:     Code(err),
		Op:       op,
		Original: err,
		Details:  details,
	}
}

// InvalidArgument returns an ErrInvalidArgument for op with a formatted reason.
func InvalidArgument(op, format string, args ...interface{}) error {
	return &HardwareError{
		Code:     ErrInvalidArgument,
		Op:       op,
		Original: fmt.Errorf(format, args...),
	}
}
