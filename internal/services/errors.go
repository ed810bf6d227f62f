package services

import "errors"

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrDuplicateUsername      = errors.New("username already taken")

	ErrValidation       = errors.New("validation failed")
	ErrMissingField     = errors.New("missing required field")
	ErrInvalidAvatar    = errors.New("invalid avatar")
	ErrEmptyDescription = errors.New("description is required")
	ErrFastEnded        = errors.New("fast has already ended")
	ErrFastNotActive    = errors.New("fast is not active")

	ErrFastNotFound  = errors.New("fast not found")
	ErrNotOwner      = errors.New("fast belongs to another user")
	ErrAlreadyActive = errors.New("a fast is already active")
)

// ValidationError is a client input problem. It matches ErrValidation and
// its Kind under errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Kind    error
}

func (err *ValidationError) Error() string {
	return err.Message
}

func (err *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (err *ValidationError) Unwrap() error {
	return err.Kind
}

func newValidationError(kind error, field string, message string) error {
	return &ValidationError{Field: field, Message: message, Kind: kind}
}
