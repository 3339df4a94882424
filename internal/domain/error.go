package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so handlers can pick a reply without
// inspecting transport details.
type ErrorKind string

const (
	KindValidation       ErrorKind = "validation"
	KindConflict         ErrorKind = "conflict"
	KindNotAuthenticated ErrorKind = "not_authenticated"
	KindNotFound         ErrorKind = "not_found"
	KindTransport        ErrorKind = "transport"
	KindRemote           ErrorKind = "remote"
	KindInternal         ErrorKind = "internal"
)

var (
	// Common domain errors
	ErrNotAuthenticated = New(KindNotAuthenticated, "conversation is not registered")
	ErrLockNotAcquired  = errors.New("conversation lock not acquired")
	ErrUnknownCommand   = errors.New("unknown command")
)

// Error is the typed failure returned by the identity client, the caches
// and local validation.
type Error struct {
	Kind    ErrorKind
	Message string
	Status  int // HTTP status for remote failures, 0 otherwise
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches two *Error values by kind so errors.Is(err, ErrNotAuthenticated)
// holds for any not-authenticated failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Remote builds the error for a non-2xx identity service response.
func Remote(status int, message string) *Error {
	return &Error{Kind: KindForStatus(status), Message: message, Status: status}
}

func Transport(cause error) *Error {
	return Wrap(KindTransport, "identity service unreachable", cause)
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

// KindForStatus maps an HTTP status code to an error kind.
func KindForStatus(status int) ErrorKind {
	switch status {
	case 400, 422:
		return KindValidation
	case 401, 403:
		return KindNotAuthenticated
	case 404:
		return KindNotFound
	case 409:
		return KindConflict
	default:
		return KindRemote
	}
}

func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) ErrorKind {
	if de, ok := AsError(err); ok {
		return de.Kind
	}
	return KindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the server or validation message carried by err.
func MessageOf(err error) string {
	if de, ok := AsError(err); ok {
		return de.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
