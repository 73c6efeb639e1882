// Package calmerr defines the error taxonomy shared by every CALM component.
//
// Every user-visible failure carries a machine-readable Kind and a
// human-readable message; callers at the dispatcher boundary use errors.As
// to recover the Kind and never leak a bare stack trace to a response.
package calmerr

import (
	"errors"
	"fmt"
)

// Kind enumerates the error taxonomy from spec.md §7.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindInvalidState    Kind = "invalid_state"
	KindEmptyCluster    Kind = "empty_cluster"
	KindInsufficientData Kind = "insufficient_data"
	KindDimensionMismatch Kind = "dimension_mismatch"
	KindStoreError      Kind = "store_error"
	KindEmbedError      Kind = "embed_error"
	KindCorruptState    Kind = "corrupt_state"
)

// Error is the typed error returned at every component boundary.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given kind wrapping an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Is reports whether err (or any error it wraps) has the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Validation convenience constructors, collapsing the separate
// ValidationError/LoadError shapes used elsewhere in this codebase onto
// one taxonomy.

func Validationf(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

func InvalidStatef(format string, args ...any) *Error {
	return New(KindInvalidState, fmt.Sprintf(format, args...))
}
