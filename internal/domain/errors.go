package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind names a business error surfaced to API clients.
type ErrorKind string

const (
	// KindProfileNotFound means a search selected no records.
	KindProfileNotFound ErrorKind = "PROFILE_NOT_FOUND"
	// KindInvalidInput means the request could not be decoded.
	KindInvalidInput ErrorKind = "INVALID_INPUT"
)

// Error is a tagged error carrying the HTTP status it maps to.
type Error struct {
	Kind   ErrorKind
	Status int
	Err    error
}

// NewError builds an Error of the given kind.
func NewError(kind ErrorKind, status int, err error) *Error {
	return &Error{Kind: kind, Status: status, Err: err}
}

// ErrProfileNotFound is returned by searches that select no records.
var ErrProfileNotFound = NewError(KindProfileNotFound, http.StatusNotFound, nil)

// InvalidInput wraps a decoding failure.
func InvalidInput(err error) *Error {
	return NewError(KindInvalidInput, http.StatusBadRequest, err)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any Error of the same kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// StatusOf returns the HTTP status associated with err, 500 for untagged errors.
func StatusOf(err error) int {
	var tagged *Error
	if errors.As(err, &tagged) && tagged.Status != 0 {
		return tagged.Status
	}
	return http.StatusInternalServerError
}
