package models

import (
	"errors"
	"fmt"
)

// Domain errors returned by the services layer. Handlers translate these
// into HTTP status codes; anything unrecognized becomes a 500.
var (
	ErrSessionNotFound    = errors.New("verification session not found")
	ErrSessionExpired     = errors.New("verification session expired")
	ErrInvalidOTP         = errors.New("invalid verification code")
	ErrDuplicateAccount   = errors.New("account already exists for this email or phone")
	ErrUserNotFound       = errors.New("user not found")
	ErrVehicleNotFound    = errors.New("vehicle not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPermissionDenied   = errors.New("verification level does not permit this operation")
	ErrResetOTPExpired    = errors.New("password reset code expired")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrRateLimited        = errors.New("too many attempts, try again later")
)

// ValidationError carries a field-level message for malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a field-level validation failure.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UpstreamError wraps a collaborator failure (mail relay, blob storage) so
// handlers can report a gateway error without leaking internals.
type UpstreamError struct {
	Collaborator string
	Err          error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream failure: %v", e.Collaborator, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
