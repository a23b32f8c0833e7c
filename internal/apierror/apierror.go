// Package apierror defines the error taxonomy surfaced to API clients.  Each
// error carries a Kind which maps to exactly one HTTP status code.  Services
// return these values; the central HTTP error handler renders them into the
// response envelope.
package apierror

import (
	"errors"
	"net/http"
)

// Kind classifies a failure.  Two errors with the same Kind match under
// errors.Is regardless of their messages.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicateUser
	KindNotFound
	KindInvalidCredential
	KindUnauthorized
	KindTokenInvalid
	KindTokenReused
	KindForbidden
	KindConflict
	KindUpstream
)

var kindNames = map[Kind]string{
	KindInternal:          "internal_error",
	KindValidation:        "validation_error",
	KindDuplicateUser:     "duplicate_user",
	KindNotFound:          "not_found",
	KindInvalidCredential: "invalid_credential",
	KindUnauthorized:      "unauthorized",
	KindTokenInvalid:      "token_invalid",
	KindTokenReused:       "token_reused",
	KindForbidden:         "forbidden",
	KindConflict:          "conflict",
	KindUpstream:          "upstream_failure",
}

// String returns the snake_case code of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "internal_error"
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindDuplicateUser, KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidCredential, KindUnauthorized, KindTokenInvalid, KindTokenReused:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure with a client-safe message.  Err holds the
// underlying cause, which is logged but never rendered.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Status returns the HTTP status code of the error's kind.
func (e *Error) Status() int { return e.Kind.Status() }

// Sentinels usable with errors.Is.
var (
	ErrValidation        = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrDuplicateUser     = &Error{Kind: KindDuplicateUser, Message: "user with this username or email already exists"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "resource not found"}
	ErrInvalidCredential = &Error{Kind: KindInvalidCredential, Message: "invalid credentials"}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized, Message: "unauthorized request"}
	ErrTokenInvalid      = &Error{Kind: KindTokenInvalid, Message: "invalid or expired token"}
	ErrTokenReused       = &Error{Kind: KindTokenReused, Message: "refresh token is expired or used"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "you do not have permission to perform this action"}
	ErrConflict          = &Error{Kind: KindConflict, Message: "conflict"}
	ErrUpstream          = &Error{Kind: KindUpstream, Message: "upstream service failure"}
	ErrInternal          = &Error{Kind: KindInternal, Message: "something went wrong"}
)

// New returns an error of the given kind with a custom message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an error of the given kind that keeps err as its cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation builds a ValidationError with per-field details.
func Validation(message string, details ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

// NotFound builds a NotFound error naming the missing resource.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// As extracts an *Error from err.  Errors that are not classified come back
// as a KindInternal error wrapping the original.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Message: ErrInternal.Message, Err: err}
}
