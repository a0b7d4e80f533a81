// Package qmierr defines the structured error taxonomy shared by every
// component of the control core, so that callers can distinguish "surface
// to the user", "retry", and "this is a programmer bug" outcomes without
// string matching.
package qmierr

import (
	"errors"
	"fmt"
)

// Code classifies the reason an operation failed.
type Code int

const (
	// Unsupported: device or firmware lacks the required TLV/message.
	Unsupported Code = iota
	// Transport: QMI-level failure prior to any protocol-layer result.
	Transport
	// Protocol: a QMI result TLV reports failure.
	Protocol
	// Aborted: timeout waiting for a correlated indication.
	Aborted
	// Validation: malformed caller argument.
	Validation
	// NotFound: carrier config mapping/list lookup failed.
	NotFound
	// TooMany: assistance data exceeds device-advertised limits.
	TooMany
	// Fatal: invariant violation — programmer error.
	Fatal
)

func (c Code) String() string {
	switch c {
	case Unsupported:
		return "unsupported"
	case Transport:
		return "transport"
	case Protocol:
		return "protocol"
	case Aborted:
		return "aborted"
	case Validation:
		return "validation"
	case NotFound:
		return "not-found"
	case TooMany:
		return "too-many"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is the control core's structured error type. Path records the
// operation/step that produced it, e.g. "set-current-capabilities: reset".
type Error struct {
	Code  Code
	Path  string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Code, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Code)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error with no wrapped cause.
func New(code Code, path string, format string, args ...any) *Error {
	return &Error{Code: code, Path: path, Cause: fmt.Errorf(format, args...)}
}

// Wrap attaches a path and code to an existing error.
func Wrap(code Code, path string, cause error) *Error {
	return &Error{Code: code, Path: path, Cause: cause}
}

// Is reports whether err carries the given Code, unwrapping as needed.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
