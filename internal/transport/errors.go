package transport

import (
	"errors"
	"fmt"
)

// ErrNotRegistered is returned by Login when the server does not know the
// phone number. Callers fall back to the registration flow instead of
// surfacing an error.
var ErrNotRegistered = errors.New("phone not registered")

// APIError carries the server-provided error message of a failed call.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}
