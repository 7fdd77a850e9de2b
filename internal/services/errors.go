package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a service failure for the HTTP layer. Raw storage
// errors never leave this package; they are wrapped into one of these kinds.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindUnauthorized ErrorKind = "unauthorized"
	KindConflict     ErrorKind = "conflict"
	KindInvalid      ErrorKind = "invalid"
	KindUnavailable  ErrorKind = "unavailable"
)

type ServiceError struct {
	Kind    ErrorKind
	Message string
	Err     error // underlying cause, not exposed to callers
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func NotFound(message string) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Message: message}
}

func Unauthorized(message string) *ServiceError {
	return &ServiceError{Kind: KindUnauthorized, Message: message}
}

func Conflict(message string, err error) *ServiceError {
	return &ServiceError{Kind: KindConflict, Message: message, Err: err}
}

func Invalid(message string) *ServiceError {
	return &ServiceError{Kind: KindInvalid, Message: message}
}

func Unavailable(message string, err error) *ServiceError {
	return &ServiceError{Kind: KindUnavailable, Message: message, Err: err}
}

// KindOf extracts the error kind, defaulting to unavailable for anything that
// escaped untyped.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnavailable
}
