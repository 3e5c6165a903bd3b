// Package status defines the error-reporting surface shared by the calohits
// packages.
//
// Every fallible operation returns a plain Go error. Errors produced by this
// module are *Error values carrying a Code, so callers can branch with
// errors.Is against the per-code sentinels (ErrNotFound, ErrNotAllowed, ...)
// or classify with CodeOf and IsFatal.
//
// Two families exist:
//   - recoverable protocol errors (name reuse, no open session, unknown name),
//     returned to the caller who decides whether to retry or abandon;
//   - fatal conditions (broken snapshot invariants, degenerate geometry) which
//     must always escalate.
package status

import (
	"errors"
	"fmt"
)

// Code is the closed set of outcomes an operation can report.
type Code uint8

const (
	Success Code = iota
	Failure
	NotFound
	NotInitialized
	AlreadyExists
	InvalidParameter
	OutOfRange
	NotAllowed
)

func (c Code) String() string {
	switch c {
	case Success:
		return "SUCCESS"
	case Failure:
		return "FAILURE"
	case NotFound:
		return "NOT_FOUND"
	case NotInitialized:
		return "NOT_INITIALIZED"
	case AlreadyExists:
		return "ALREADY_EXISTS"
	case InvalidParameter:
		return "INVALID_PARAMETER"
	case OutOfRange:
		return "OUT_OF_RANGE"
	case NotAllowed:
		return "NOT_ALLOWED"
	default:
		return "UNRECOGNIZED"
	}
}

// Sentinels, one per non-success code. *Error unwraps to these.
var (
	ErrFailure          = errors.New("failure")
	ErrNotFound         = errors.New("not found")
	ErrNotInitialized   = errors.New("not initialized")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrOutOfRange       = errors.New("out of range")
	ErrNotAllowed       = errors.New("not allowed")
)

var sentinels = map[Code]error{
	Failure:          ErrFailure,
	NotFound:         ErrNotFound,
	NotInitialized:   ErrNotInitialized,
	AlreadyExists:    ErrAlreadyExists,
	InvalidParameter: ErrInvalidParameter,
	OutOfRange:       ErrOutOfRange,
	NotAllowed:       ErrNotAllowed,
}

// Error is the concrete error type returned by this module.
type Error struct {
	// Op names the operation that failed, e.g. "availability.Apply".
	Op   string
	Code Code
	// Fatal marks conditions that must not be recovered locally.
	Fatal bool
	Msg   string
}

func (e *Error) Error() string {
	prefix := ""
	if e.Fatal {
		prefix = "fatal: "
	}
	if e.Msg == "" {
		return fmt.Sprintf("%s%s: %s", prefix, e.Op, e.Code)
	}
	return fmt.Sprintf("%s%s: %s: %s", prefix, e.Op, e.Code, e.Msg)
}

// Unwrap exposes the sentinel matching e.Code.
func (e *Error) Unwrap() error {
	return sentinels[e.Code]
}

// New returns a recoverable error.
func New(op string, code Code, format string, args ...any) error {
	return &Error{Op: op, Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Fatalf returns an error flagged as unrecoverable.
func Fatalf(op string, code Code, format string, args ...any) error {
	return &Error{Op: op, Code: code, Fatal: true, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the Code carried by err. A nil error is Success, a foreign
// error is Failure.
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return Failure
}

// IsFatal reports whether any *Error in err's chain is fatal.
func IsFatal(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Fatal
	}
	return false
}
