// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

// Package fault defines the typed error taxonomy shared by all Goalpost
// services. Every business-rule failure is one of five kinds; the transport
// layer maps kinds to HTTP status codes and stable error codes, and anything
// without a kind is treated as an internal failure.
//
// Services return faults synchronously and never retry or swallow them.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a business-rule failure.
type Kind int

const (
	// KindUnknown marks errors that carry no taxonomy kind, typically
	// storage or infrastructure failures surfaced as HTTP 500.
	KindUnknown Kind = iota

	// KindInvalidArgument: malformed input (non-positive sticker target,
	// self-follow, zero delta).
	KindInvalidArgument

	// KindPermissionDenied: the actor lacks authority for the transition.
	KindPermissionDenied

	// KindInvalidState: the entity is not in a state that allows the
	// transition (responding to a non-pending invitation).
	KindInvalidState

	// KindConflict: a concurrent or pre-existing fact blocks the operation
	// (duplicate pending join request, active co-participants at delete
	// time, sticker count leaving [0, target]).
	KindConflict

	// KindNotFound: the referenced entity does not exist or is not visible
	// to the caller.
	KindNotFound
)

// String returns the stable machine-readable code for the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "INVALID_ARGUMENT"
	case KindPermissionDenied:
		return "PERMISSION_DENIED"
	case KindInvalidState:
		return "INVALID_STATE"
	case KindConflict:
		return "CONFLICT"
	case KindNotFound:
		return "NOT_FOUND"
	default:
		return "INTERNAL"
	}
}

// Error is a typed, terminal failure returned by a service operation.
type Error struct {
	kind Kind
	msg  string
	err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Kind returns the taxonomy kind.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the human-readable message without the kind prefix.
// It is safe to surface to callers as-is.
func (e *Error) Message() string { return e.msg }

// Unwrap exposes the wrapped cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error { return e.err }

// New creates a fault of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap creates a fault of the given kind around an underlying cause.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

// InvalidArgument creates a KindInvalidArgument fault.
func InvalidArgument(format string, args ...interface{}) *Error {
	return New(KindInvalidArgument, format, args...)
}

// PermissionDenied creates a KindPermissionDenied fault.
func PermissionDenied(format string, args ...interface{}) *Error {
	return New(KindPermissionDenied, format, args...)
}

// InvalidState creates a KindInvalidState fault.
func InvalidState(format string, args ...interface{}) *Error {
	return New(KindInvalidState, format, args...)
}

// Conflict creates a KindConflict fault.
func Conflict(format string, args ...interface{}) *Error {
	return New(KindConflict, format, args...)
}

// NotFound creates a KindNotFound fault.
func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

// KindOf extracts the taxonomy kind from an error chain.
// Errors that carry no fault return KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.kind
	}
	return KindUnknown
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
