package services

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for missing, foreign-tenant or soft-deleted records.
var ErrNotFound = errors.New("not found")

// ValidationError is a recoverable business-rule violation reported to the client as 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
