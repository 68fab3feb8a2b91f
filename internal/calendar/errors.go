package calendar

import "errors"

var (
	// ErrNoCurrentUser is returned when an operation that needs a user context
	// is invoked without one.
	ErrNoCurrentUser = errors.New("calendar: authentication required")
	// ErrMissingRecurrence is returned when series materialization is
	// requested for a template without a recurrence rule.
	ErrMissingRecurrence = errors.New("calendar: cannot generate recurring events without a recurrence rule")
	// ErrNotFound is returned when the requested event does not exist or is
	// not visible to the requesting user.
	ErrNotFound = errors.New("calendar: event not found")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
