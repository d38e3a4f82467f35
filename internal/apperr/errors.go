// Package apperr defines the error kinds shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrInvalidInput marks a missing or malformed required field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredential marks an OTP mismatch, expiry or missing signup proof.
	ErrInvalidCredential = errors.New("invalid or expired verification code")
	// ErrUnauthorized marks a missing or unresolvable session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound marks a referenced entity that does not exist (or is not visible to the caller).
	ErrNotFound = errors.New("not found")
	// ErrInternal marks an unexpected store failure.
	ErrInternal = errors.New("internal server error")
)

// Status maps an error to its HTTP status code. Unclassified errors are 500.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidCredential):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns a client-safe summary of err. Internal details never leave
// this function: anything that is not a known client error yields the generic
// internal message.
func Message(err error) string {
	if Status(err) == http.StatusInternalServerError {
		return ErrInternal.Error()
	}
	msg := err.Error()
	// Strip wrapping context added above the sentinel ("create user: invalid input: name is required").
	for _, kind := range []error{ErrInvalidInput, ErrInvalidCredential, ErrUnauthorized, ErrNotFound} {
		if idx := strings.Index(msg, kind.Error()); idx > 0 && errors.Is(err, kind) {
			return msg[idx:]
		}
	}
	return msg
}
