// Package common defines shared constants, sentinel errors and small helpers
// used across the dashkeeper server. Callers should use errors.Is to match the
// sentinel kinds; DomainError carries the user-facing message on top of them.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal       = errors.New("internal error")
	ErrorValidation     = errors.New("validation error")
	ErrorAuthentication = errors.New("authentication error")
	ErrorResource       = errors.New("resource error")
	ErrorExpired        = errors.New("expired")

	// Transport-level: the request carried no usable session token.
	ErrorUnauthorized = errors.New("unauthorized")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// DomainError is a classified failure with the message shown to the caller.
// It unwraps to its Kind so errors.Is(err, ErrorNotFound) keeps working.
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string { return e.Message }

func (e *DomainError) Unwrap() error { return e.Kind }

// NotFound reports an entity that is absent or not owned by the caller.
func NotFound(msg string) error {
	return &DomainError{Kind: ErrorNotFound, Message: msg}
}

// Conflict reports a name collision.
func Conflict(msg string) error {
	return &DomainError{Kind: ErrorAlreadyExists, Message: msg}
}

func Validation(msg string) error {
	return &DomainError{Kind: ErrorValidation, Message: "Validation Error: " + msg}
}

func Authentication(msg string) error {
	return &DomainError{Kind: ErrorAuthentication, Message: "Authentication Error: " + msg}
}

func Resource(msg string) error {
	return &DomainError{Kind: ErrorResource, Message: "Resource Error: " + msg}
}

// Expired reports an absent or time-expired reset token.
func Expired(msg string) error {
	return &DomainError{Kind: ErrorExpired, Message: "Resource Error: " + msg}
}

func Unauthorized(msg string) error {
	return &DomainError{Kind: ErrorUnauthorized, Message: "Authorization Error: " + msg}
}

// Message returns the caller-facing message of err, or fallback when err is
// not a DomainError.
func Message(err error, fallback string) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return fallback
}
