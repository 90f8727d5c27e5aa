// Package repository holds the adapters for the backend HTTP services. Each
// adapter is a stateless translator: it turns a domain call into one HTTP
// request, maps the backend wire shape into domain types and surfaces every
// failure as an *APIError so callers can show a readable message.
package repository

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches (via errors.Is) any APIError carrying a 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden matches any APIError carrying a 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict matches any APIError carrying a 409.
var ErrConflict = errors.New("conflict")

// APIError is the failure of one adapter call. Status is 0 for transport
// failures (connection refused, timeout, undecodable body). Message is what
// the backend said, or the operation's default message when it said nothing.
type APIError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
}

func (e *APIError) Unwrap() error { return e.Err }

// Is lets callers match status classes with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

// MessageOf returns the user-readable message of err: the APIError message
// when err wraps one, else fallback.
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
