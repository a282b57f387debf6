package generation

import (
	"errors"
	"fmt"
)

// Kind classifies why a generation failed
type Kind string

const (
	// KindUnavailable means the collaborator could not be reached or is misconfigured
	KindUnavailable Kind = "unavailable"
	// KindTimeout means the call exceeded its deadline; the caller may retry
	KindTimeout Kind = "timeout"
	// KindCancelled means the caller abandoned the request before it was persisted
	KindCancelled Kind = "cancelled"
	// KindRejected means the collaborator refused the request
	KindRejected Kind = "rejected"
	// KindUnparseable means the response did not match the expected shape
	KindUnparseable Kind = "unparseable"
	// KindFabricated means the response invented employers, titles, dates or schools
	KindFabricated Kind = "fabricated"
)

// GenerationError reports a failed generation. No version is ever persisted when one is
// returned.
type GenerationError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("generation %s: %s", e.Kind, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the same request may succeed if sent again
func (e *GenerationError) Retryable() bool {
	return e.Kind == KindUnavailable || e.Kind == KindTimeout
}

// IsKind reports whether err is a GenerationError of the given kind
func IsKind(err error, kind Kind) bool {
	var gErr *GenerationError
	return errors.As(err, &gErr) && gErr.Kind == kind
}
