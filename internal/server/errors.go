package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/profile-sourcer/internal/pipeline"
)

// RetryAfterSeconds is advertised on 503 responses.
const RetryAfterSeconds = 30

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates the requested record does not exist for this account.
type ErrNotFound struct {
	What string
}

func (e *ErrNotFound) Error() string {
	return e.What + " not found"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	if f, ok := pipeline.AsFailure(err); ok {
		switch f.Kind {
		case pipeline.KindInvalidInput:
			return http.StatusBadRequest
		case pipeline.KindUnauthorized:
			return http.StatusUnauthorized
		case pipeline.KindInsufficientCredits:
			return http.StatusPaymentRequired
		case pipeline.KindProviderUnavailable:
			return http.StatusServiceUnavailable
		}
	}

	var validation *ErrValidation
	var notFound *ErrNotFound
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is the machine-readable "error" field of an error body.
func errorCode(err error) string {
	if f, ok := pipeline.AsFailure(err); ok {
		return string(f.Kind)
	}
	switch HTTPStatus(err) {
	case http.StatusBadRequest:
		return "invalid_input"
	case http.StatusNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// publicMessage hides internal error detail from clients.
func publicMessage(err error) string {
	if f, ok := pipeline.AsFailure(err); ok {
		return f.Message
	}
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
