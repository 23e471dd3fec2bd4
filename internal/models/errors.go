package models

import "fmt"

// ValidationError reports invalid input on a single field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a field condition and returns a ValidationError when it fails
func Validate(ok bool, field, message string) error {
	if !ok {
		return &ValidationError{Field: field, Message: message}
	}
	return nil
}

// TransitionError reports an operation attempted on an entity whose current
// status does not allow it. These are precondition failures a caller must
// handle; they are never retried automatically.
type TransitionError struct {
	Entity string
	From   string
	Op     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s in status %q does not allow %s", e.Entity, e.From, e.Op)
}
