package llm

import (
	"errors"
	"fmt"
)

// ErrNoContent is returned when the provider answers without any text
var ErrNoContent = errors.New("no content in response")

// RejectedError reports that the provider refused the request itself, for example a safety
// block or a malformed request. Retrying the same prompt will not help.
type RejectedError struct {
	Provider Provider
	Reason   string
	Cause    error
}

func (e *RejectedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s rejected request: %s: %v", e.Provider, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s rejected request: %s", e.Provider, e.Reason)
}

func (e *RejectedError) Unwrap() error {
	return e.Cause
}

// IsRejected reports whether err is a provider rejection
func IsRejected(err error) bool {
	var rErr *RejectedError
	return errors.As(err, &rErr)
}
