// Package apperr defines the error kinds shared by the service and handler
// layers. Services return *Error values; handlers map the kind onto an HTTP
// status and a structured body.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrUpstream        = errors.New("upstream failure")
	ErrInternal        = errors.New("internal error")

	// ErrSelfReference marks an InvalidArgument raised because an entity
	// was asked to relate to itself.
	ErrSelfReference = errors.New("self reference")
)

// Error carries a kind sentinel, a message safe to show to clients and an
// optional underlying cause.
type Error struct {
	kind  error
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Message returns the client-facing text without the wrapped cause.
func (e *Error) Message() string { return e.msg }

// Kind returns the sentinel this error was created with.
func (e *Error) Kind() error { return e.kind }

func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

func newErr(kind error, msg string, cause error) error {
	return &Error{kind: kind, msg: msg, cause: cause}
}

func InvalidArgument(msg string) error { return newErr(ErrInvalidArgument, msg, nil) }

// SelfReference is an InvalidArgument that also matches ErrSelfReference.
func SelfReference(msg string) error { return newErr(ErrInvalidArgument, msg, ErrSelfReference) }

func Unauthorized(msg string) error { return newErr(ErrUnauthorized, msg, nil) }

func NotFound(msg string) error { return newErr(ErrNotFound, msg, nil) }

func Forbidden(msg string) error { return newErr(ErrForbidden, msg, nil) }

func Conflict(msg string) error { return newErr(ErrConflict, msg, nil) }

// Upstream wraps a storage, broker or other external failure.
func Upstream(err error, msg string) error { return newErr(ErrUpstream, msg, err) }

// Internal wraps a failure that is neither the caller's nor a collaborator's
// fault, e.g. token signing.
func Internal(err error, msg string) error { return newErr(ErrInternal, msg, err) }

// KindOf reports the kind sentinel of err. Errors that were not created by
// this package are treated as internal.
func KindOf(err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.kind
	}
	return ErrInternal
}

// MessageOf returns the client-facing message of err.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.msg
	}
	return "internal server error"
}

func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }

func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

func IsUpstream(err error) bool { return errors.Is(err, ErrUpstream) }

func IsSelfReference(err error) bool { return errors.Is(err, ErrSelfReference) }
