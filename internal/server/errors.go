package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/resume-versions/internal/generation"
	"github.com/jonathan/resume-versions/internal/store"
	"github.com/jonathan/resume-versions/internal/types"
)

// StatusClientClosedRequest is reported when the caller went away before a generation finished
const StatusClientClosedRequest = 499

// errorBody is the JSON shape of every error response
type errorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *types.ValidationError
		notFoundErr   *types.NotFoundError
		genErr        *generation.GenerationError
		storageErr    *store.StorageError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &genErr):
		switch genErr.Kind {
		case generation.KindTimeout:
			return http.StatusGatewayTimeout
		case generation.KindCancelled:
			return StatusClientClosedRequest
		default:
			return http.StatusBadGateway
		}
	case errors.As(err, &storageErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// describeError builds the response body. Internal failures never leak their cause.
func describeError(err error, status int) errorBody {
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway && status != http.StatusGatewayTimeout {
		return errorBody{Error: "internal server error"}
	}

	body := errorBody{Error: err.Error()}
	var validationErr *types.ValidationError
	if errors.As(err, &validationErr) {
		body.Field = validationErr.Field
		body.Error = validationErr.Message
	}
	var genErr *generation.GenerationError
	if errors.As(err, &genErr) {
		body.Kind = string(genErr.Kind)
		body.Error = genErr.Message
		body.Retryable = genErr.Retryable()
	}
	return body
}
