package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable marks availability failures: the origin could not be reached,
	// answered with a server error, or returned a body that could not be decoded.
	// Callers must never treat it as an authentication failure.
	ErrUnavailable = errors.New("origin unavailable")

	// ErrUnauthorized marks an explicit rejection of credentials or tokens by the origin.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation marks a request that is missing a required field.
	ErrValidation = errors.New("validation failed")

	// ErrNotConfigured is returned when a required endpoint or secret is absent.
	ErrNotConfigured = errors.New("not configured")
)

// OriginError carries the first GraphQL error message returned by the origin.
// The message is surfaced to users verbatim.
type OriginError struct {
	Message string
}

func (e *OriginError) Error() string {
	return e.Message
}

// NewOriginError builds an OriginError, falling back to a generic message.
func NewOriginError(message, fallback string) *OriginError {
	if message == "" {
		message = fallback
	}
	return &OriginError{Message: message}
}

// Unavailable wraps err so that errors.Is(err, ErrUnavailable) holds.
func Unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}

// Validation builds a field-specific validation error.
func Validation(message string) error {
	return &ValidationError{Message: message}
}

// ValidationError is a validation failure with a user-facing message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// IsTransient reports whether err is an availability failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// OriginMessage extracts the origin's message from err if it carries one.
func OriginMessage(err error) (string, bool) {
	var oe *OriginError
	if errors.As(err, &oe) {
		return oe.Message, true
	}
	return "", false
}

// AuthError is an explicit rejection with a user-facing message.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return ErrUnauthorized }

// Unauthorized builds an AuthError so that errors.Is(err, ErrUnauthorized) holds.
func Unauthorized(message string) error {
	return &AuthError{Message: message}
}

// Message returns the user-facing message carried by err, or fallback.
func Message(err error, fallback string) string {
	var (
		oe *OriginError
		ae *AuthError
		ve *ValidationError
	)
	switch {
	case errors.As(err, &oe):
		return oe.Message
	case errors.As(err, &ae):
		return ae.Message
	case errors.As(err, &ve):
		return ve.Message
	}
	return fallback
}
