package services

import (
	"errors"
	"strings"

	"cardboard/app/repositories"
	"cardboard/app/storage"
	"cardboard/app/validation"
)

// ErrNotFound is returned when a post or review does not exist.
var ErrNotFound = repositories.ErrNotFound

// ValidationError carries every rule a submission broke.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations.Messages(), "; ")
}

// IsNotFound reports whether err means a missing post, review or image.
func IsNotFound(err error) bool {
	return errors.Is(err, repositories.ErrNotFound) || errors.Is(err, storage.ErrNotFound)
}

// AsValidation extracts a ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func invalid(vs validation.Violations) error {
	return &ValidationError{Violations: vs}
}
