package pipeline

import (
	"fmt"
	"net/http"
)

// AuthError is returned when a protected request could not be authenticated,
// either because the refresh failed or because the backend refused the
// refreshed credential.
type AuthError struct {
	Method string
	URL    string
	Err    error
}

func newAuthError(req *http.Request, err error) *AuthError {
	return &AuthError{
		Method: req.Method,
		URL:    req.URL.Redacted(),
		Err:    err,
	}
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
