package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a failed run.
type Kind string

const (
	// KindInvalidInput: the prompt yields nothing to search for. No charge, no provider calls.
	KindInvalidInput Kind = "invalid_input"
	// KindUnauthorized: no valid account. No charge.
	KindUnauthorized Kind = "unauthorized"
	// KindInsufficientCredits: the balance is below one search, before or at charge time.
	KindInsufficientCredits Kind = "insufficient_credits"
	// KindProviderUnavailable: every destination failed or nothing survived filtering. Retryable.
	KindProviderUnavailable Kind = "provider_unavailable"
)

// Failure is a typed pipeline error.
type Failure struct {
	Kind    Kind
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// Retryable reports whether the caller may repeat the same request.
func (f *Failure) Retryable() bool {
	return f.Kind == KindProviderUnavailable
}

func fail(kind Kind, message string, cause error) *Failure {
	return &Failure{Kind: kind, Message: message, Cause: cause}
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
