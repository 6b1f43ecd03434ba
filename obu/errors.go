/*
NAME
  errors.go

DESCRIPTION
  errors.go defines the three error kinds the IAMF bitstream codec exposes
  to callers, per the core's error handling design: InvalidArgument is
  terminal for the current OBU, ResourceExhausted is non-terminal and
  retryable once more bytes arrive, Internal is terminal for the whole
  sequence.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package obu

import (
	"fmt"

	"github.com/ausocean/iamf/bits"
	"github.com/pkg/errors"
)

// Kind categorises an Error the way the core's error handling design
// requires: callers branch on Kind, not on message text.
type Kind int

const (
	// KindInvalidArgument marks malformed input: a ULEB128 overrun, a value
	// out of range, a cross-OBU invariant violation, a stray parameter id,
	// a duplicate parameter-definition type within one audio element, and
	// so on. Terminal for the current OBU.
	KindInvalidArgument Kind = iota
	// KindResourceExhausted marks a reader that has fewer bits than
	// requested. Non-terminal: the caller may supply more bytes and retry.
	KindResourceExhausted
	// KindInternal marks a should-not-happen violation of an internal
	// invariant. Always terminal for the whole sequence.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindResourceExhausted:
		return "resource_exhausted"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the typed error returned across the obu, timing and stream
// packages. Use errors.As to recover the Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("obu: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the same Kind; this lets callers do
// errors.Is(err, obu.ErrInvalidArgument) style checks via the sentinel Kind
// values below, in addition to errors.As(&obu.Error{}).
func (e *Error) Is(target error) bool {
	k, ok := target.(kindSentinel)
	return ok && e.Kind == Kind(k)
}

type kindSentinel Kind

// Sentinel values usable with errors.Is against an *Error.
var (
	ErrInvalidArgument   error = kindSentinel(KindInvalidArgument)
	ErrResourceExhausted error = kindSentinel(KindResourceExhausted)
	ErrInternal          error = kindSentinel(KindInternal)
)

func (k kindSentinel) Error() string { return Kind(k).String() }

// wrapKind builds an *Error, classifying bits package sentinel errors
// into the matching Kind when err originates from the bit reader/writer.
func wrapKind(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := KindInvalidArgument
	if errors.Is(err, bits.ErrResourceExhausted) {
		kind = KindResourceExhausted
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// invalidArgf builds an InvalidArgument *Error with a formatted message.
func invalidArgf(op, format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidArgument, Op: op, Err: fmt.Errorf(format, args...)}
}

// internalf builds an Internal *Error with a formatted message.
func internalf(op, format string, args ...interface{}) error {
	return &Error{Kind: KindInternal, Op: op, Err: fmt.Errorf(format, args...)}
}

// resourceExhaustedf builds a ResourceExhausted *Error with a formatted
// message.
func resourceExhaustedf(op, format string, args ...interface{}) error {
	return &Error{Kind: KindResourceExhausted, Op: op, Err: fmt.Errorf(format, args...)}
}
