// ABOUTME: The single structured error type surfaced by every API call
// ABOUTME: Transport failures and application failures share one shape

package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is returned by every Client call that fails
type Error struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Status  int    `json:"status,omitempty"`
	Details any    `json:"details,omitempty"`
}

func (e *Error) Error() string {
	switch {
	case e.Code != "" && e.Status != 0:
		return fmt.Sprintf("%s (code %s, status %d)", e.Message, e.Code, e.Status)
	case e.Code != "":
		return fmt.Sprintf("%s (code %s)", e.Message, e.Code)
	case e.Status != 0:
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	default:
		return e.Message
	}
}

// IsUnauthorized reports whether err is an API error with status 401
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsForbidden reports whether err is an API error with status 403
func IsForbidden(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden
}
