package hoot

import (
	"errors"

	"github.com/256dpi/xo"
)

// Kind classifies the errors returned by the service.
type Kind int

// The available error kinds.
const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindForbidden
	KindUnauthenticated
	KindStore
)

// Error associates an error with a kind. Errors constructed with E carry a
// safe message that may be presented to the client, while errors constructed
// with StoreError do not.
type Error struct {
	Kind Kind
	Err  error
}

// E is a shorthand to construct a kinded error with a safe message.
func E(kind Kind, format string, args ...interface{}) error {
	return &Error{
		Kind: kind,
		Err:  xo.SF(format, args...),
	}
}

// StoreError wraps an unexpected persistence failure.
func StoreError(err error) error {
	return &Error{
		Kind: KindStore,
		Err:  xo.W(err),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Err.Error()
}

// Unwrap will return the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind returns whether the provided error carries the specified kind.
func IsKind(err error, kind Kind) bool {
	var anError *Error
	if errors.As(err, &anError) {
		return anError.Kind == kind
	}

	return false
}
