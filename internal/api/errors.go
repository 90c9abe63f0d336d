package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the credential is missing, expired or rejected
	// (HTTP 401 or a tokenValid:false body).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNetwork wraps transport failures and unreadable responses.
	ErrNetwork = errors.New("network error")
	// ErrDuplicateEmail is returned by merchant registration for a known email.
	ErrDuplicateEmail = errors.New("email already registered")
)

// APIError is a business error reported by the server. Message is shown to
// the user verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Message returns the text to show for err, falling back to fallback for
// anything that is not a server-reported error.
func Message(err error, fallback string) string {
	var ae *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ae) && ae.Message != "":
		return ae.Message
	case errors.Is(err, ErrNetwork):
		return "Network error. Please try again."
	case errors.Is(err, ErrDuplicateEmail):
		return "This email is already registered."
	default:
		return fallback
	}
}
