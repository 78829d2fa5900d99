package booking

import (
	"errors"
	"fmt"
)

// Kind classifies a booking failure.  The transport layer maps each kind
// to one response status.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindConflict
	KindValidation
	KindTransaction
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindTransaction:
		return "transaction"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a domain error.  Message is safe to show to clients; Err holds
// the internal cause, if any, and is never rendered.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so errors.Is(err, ErrConflict)
// holds for every conflict regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == ""
}

// Kind sentinels for errors.Is.
var (
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrConflict    = &Error{Kind: KindConflict}
	ErrValidation  = &Error{Kind: KindValidation}
	ErrTransaction = &Error{Kind: KindTransaction}
)

// NotFound returns a KindNotFound error.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// Conflict returns a KindConflict error.
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// Validation returns a KindValidation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Transaction wraps an unexpected persistence failure behind a generic message.
func Transaction(msg string, cause error) *Error {
	return &Error{Kind: KindTransaction, Message: msg, Err: cause}
}

// KindOf reports the kind of err, or 0 when err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
