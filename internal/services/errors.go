package services

import "errors"

// Failures of the verification flow. Callers match them with errors.Is;
// anything else is an internal failure.
var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidOTP         = errors.New("invalid or expired OTP")
	ErrDispatchFailed     = errors.New("failed to send OTP")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries the message of the first failing input field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
