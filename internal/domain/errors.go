package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so the gateway can pick a metric label and
// decide what is safe to surface. The wire protocol itself only carries the
// message text.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "internal"
}

// Error is the failure shape every service operation returns. Message is
// surfaced verbatim to the requester.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// NotFound builds the "<Resource> not found" error for a missing,
// soft-deleted, or cross-tenant document.
func NotFound(label string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", label)}
}

// Validation wraps a validator rule message.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Unauthorized builds a caller-facing authorization failure.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Internal wraps a store or infrastructure failure. The caller-facing
// message deliberately omits the underlying error text.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, cause: cause}
}

// KindOf extracts the kind from any error chain, defaulting to internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
