package serlcd

import (
	"errors"
	"strconv"
)

// ErrInvalidArgument is returned, wrapped, when a row, column, address,
// dimension or text byte is outside what the display accepts. Values are
// never clamped.
var ErrInvalidArgument = errors.New("serlcd: invalid argument")

// BusError reports an I2C transfer that did not complete. The driver never
// retries; the caller decides what to do.
type BusError struct {
	Op   string // driver operation, e.g. "clear"
	Addr uint16 // device address the transfer targeted
	Err  error  // error returned by the bus
}

func (e *BusError) Error() string {
	return "serlcd: " + e.Op + " at 0x" + strconv.FormatUint(uint64(e.Addr), 16) + ": " + e.Err.Error()
}

func (e *BusError) Unwrap() error { return e.Err }

// invalidArgument wraps ErrInvalidArgument with what was rejected.
type invalidArgument struct {
	msg string
}

func (e invalidArgument) Error() string { return ErrInvalidArgument.Error() + ": " + e.msg }

func (e invalidArgument) Unwrap() error { return ErrInvalidArgument }

func errInvalid(msg string) error { return invalidArgument{msg: msg} }
