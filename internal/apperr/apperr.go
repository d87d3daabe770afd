// Package apperr classifies service failures so handlers can map them to
// HTTP responses in one place.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindInvalidState
	KindMismatch
	KindRange
	KindPersistence
	KindUpstream
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindInvalidState:
		return "INVALID_STATE"
	case KindMismatch:
		return "QUESTION_MISMATCH"
	case KindRange:
		return "OUT_OF_RANGE"
	case KindPersistence:
		return "PERSISTENCE_ERROR"
	case KindUpstream:
		return "UPSTREAM_ERROR"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	default:
		return "INTERNAL_ERROR"
	}
}

// Status is the HTTP status a kind is answered with.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindInvalidState, KindMismatch, KindRange:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Message is safe to show to clients; Err is
// the underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	// Data travels with the error to the client, e.g. the existing session
	// on a conflict.
	Data any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func Conflict(message string, data any) *Error {
	return &Error{Kind: KindConflict, Message: message, Data: data}
}

func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func Mismatch(message string) *Error {
	return &Error{Kind: KindMismatch, Message: message}
}

func Range(message string) *Error {
	return &Error{Kind: KindRange, Message: message}
}

func Persistence(message string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

func Upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

func Unauthorized(message string, err error) *Error {
	return &Error{Kind: KindUnauthorized, Message: message, Err: err}
}

// KindOf reports the kind of err, KindInternal when err is unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
