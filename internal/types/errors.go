package types

import "fmt"

// ValidationError indicates caller input failed a required-field or shape check.
// It is always raised before any storage mutation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// NotFoundError indicates a reference to a company or version that does not exist
type NotFoundError struct {
	Resource string // "company" or "version"
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}
