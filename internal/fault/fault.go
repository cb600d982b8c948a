// Package fault defines the failure kinds every bridge component reports.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can tell "not running" from "hung"
// from "bad request".
type Kind string

const (
	NotFound        Kind = "NotFound"
	CaptureFailed   Kind = "CaptureFailed"
	PeerUnreachable Kind = "PeerUnreachable"
	Timeout         Kind = "Timeout"
	ProtocolError   Kind = "ProtocolError"
	InvalidInput    Kind = "InvalidInput"
)

// Error is a classified failure. Err, when set, is the underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind, prefixing msg. A nil err yields nil.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain. Unclassified
// errors report ProtocolError, the catch-all for "anything else went wrong".
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ProtocolError
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == kind
}
