// Package forgerr defines the error kinds shared across forg's core packages.
package forgerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that branch on failure category
// (the CLI maps a Kind to an exit code; see internal/cliapp).
type Kind int

const (
	// Unknown is the zero value; errors that don't originate in forg's
	// core carry it (a typed wrapper was never applied).
	Unknown Kind = iota
	NotFound
	InvalidInput
	IoError
	ProviderError
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case InvalidInput:
		return "invalid_input"
	case IoError:
		return "io_error"
	case ProviderError:
		return "provider_error"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is a Kind-tagged error that wraps an underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with a Kind and an operation label (e.g. "scan", "undo_last").
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds a Kind-tagged error from a format string, no wrapped cause.
func Newf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from err, or Unknown if err isn't (or doesn't
// wrap) a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err is, or wraps, an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
