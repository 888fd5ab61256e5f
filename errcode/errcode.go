package errcode

import (
	"errors"

	"plantsense-go/drivers/mpr121"
	"plantsense-go/types"
)

// Code is a stable, console-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK             Code = "ok"
	InvalidParams  Code = "invalid_params"
	UnknownCommand Code = "unknown_command"
	UnknownChip    Code = "unknown_chip"
	UnknownField   Code = "unknown_field"
	NotFound       Code = "not_found"
	BusError       Code = "bus_error"
	StorageError   Code = "storage_error"

	Error Code = "error" // generic fallback
)

// E tags an error with the code the console reports for it and the
// operation that failed. The cause stays reachable through errors.Is/As.
type E struct {
	C   Code
	Op  string
	Err error
}

func (e *E) Error() string {
	if e.Err == nil {
		return string(e.C) + ": " + e.Op
	}
	return string(e.C) + ": " + e.Op + ": " + e.Err.Error()
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap tags err with code c for operation op. A nil err stays nil.
func Wrap(c Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error. The outermost tag wins, so an *E keeps
// its own code even when the cause is itself a Code.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return MapDriverErr(err)
}

// MapDriverErr maps low-level driver and model errors to a Code.
func MapDriverErr(err error) Code {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, types.ErrUnknownChip):
		return UnknownChip
	case errors.Is(err, types.ErrUnknownField):
		return UnknownField
	case errors.Is(err, mpr121.ErrNotFound):
		return NotFound
	case errors.Is(err, mpr121.ErrChannel):
		return InvalidParams
	}
	return Error
}
