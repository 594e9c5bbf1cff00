package remote

import (
	"errors"
	"fmt"
)

// Common errors returned by the persistence client. Both leave local
// state untouched; operations are retryable at the caller's boundary.
var (
	// ErrUnavailable indicates a network failure or server-side error.
	ErrUnavailable = errors.New("persistence service unavailable")

	// ErrRejected indicates the server refused the request.
	ErrRejected = errors.New("persistence service rejected request")

	// ErrNotFound indicates the resource does not exist.
	ErrNotFound = errors.New("resource not found")
)

// APIError carries the HTTP-style status and message of a failed
// persistence call.
type APIError struct {
	StatusCode int
	Message    string
	Resource   string // e.g. "studies/abc123", for context
}

func (e *APIError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("persistence API error (status %d): %s (%s)", e.StatusCode, e.Message, e.Resource)
	}
	return fmt.Sprintf("persistence API error (status %d): %s", e.StatusCode, e.Message)
}

// Unwrap maps the status class onto the package sentinels so callers
// can branch with errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == 404:
		return ErrNotFound
	case e.StatusCode >= 500 || e.StatusCode == 0:
		return ErrUnavailable
	default:
		return ErrRejected
	}
}

// IsUnavailable reports whether the error is a retryable availability
// failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsRejected reports whether the server refused the request.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}

// IsNotFound reports whether the resource was missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
