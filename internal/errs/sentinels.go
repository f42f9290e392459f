// Package errs contains sentinel errors and the tagged API error used across layers.
package errs

import "errors"

// Common sentinels across client layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrSessionExpired indicates the session could not be refreshed and the user must log in again.
	ErrSessionExpired = errors.New("session expired")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation marks input validation failures, local or reported by the server with 400.
	ErrValidation = errors.New("validation")
)

// ValidationError reports a single invalid form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return "validation: " + e.Field + ": " + e.Message }

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError.
func Invalid(field, msg string) error { return &ValidationError{Field: field, Message: msg} }
