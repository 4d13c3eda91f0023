package status

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("waitlist: entry not found")
	ErrInvalidTransition      = errors.New("waitlist: invalid transition")
	ErrConcurrentModification = errors.New("waitlist: concurrent modification")
)

// ValidationError reports a single malformed request field. It is never
// retried automatically; the handler surfaces it with the field name attached.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("waitlist: invalid %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
