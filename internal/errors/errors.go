package errors

import (
	"errors"
	"fmt"
)

// Common error types for the quiz session client
var (
	// Refresh errors
	ErrNoCredential     = errors.New("no refresh credential")
	ErrRefreshRejected  = errors.New("refresh rejected")
	ErrRefreshTransport = errors.New("refresh transport failure")
	ErrRefreshAborted   = errors.New("refresh aborted")

	// Request errors
	ErrRequestAuthRejected = errors.New("request authentication rejected")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrServiceUnavailable  = errors.New("quiz service unavailable")
	ErrInvalidResponse     = errors.New("invalid response")

	// Credential errors
	ErrMalformedToken = errors.New("malformed token")
	ErrMissingExpiry  = errors.New("token missing exp claim")

	// Storage errors
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidStoreKey    = errors.New("invalid store key")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
