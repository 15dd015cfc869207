package backend

import (
	"errors"
	"fmt"
)

// AuthError indicates the backend rejected the session (HTTP 401).
type AuthError struct {
	Method string
	Path   string
	Detail string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("not authenticated (401) on %s %s: %s", e.Method, e.Path, e.Detail)
}

// PermissionError indicates the backend refused the request (HTTP 403),
// typically because the mail provider scope was not granted.
type PermissionError struct {
	Method string
	Path   string
	Detail string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied (403) on %s %s: %s", e.Method, e.Path, e.Detail)
}

// StatusError is any other non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d on %s %s: %s", e.StatusCode, e.Method, e.Path, e.Detail)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsPermissionError reports whether err (or any error in its chain) is a
// PermissionError.
func IsPermissionError(err error) bool {
	var permErr *PermissionError
	return errors.As(err, &permErr)
}
