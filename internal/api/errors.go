package api

import (
	"context"
	"errors"
	"fmt"
)

// AuthError is returned for 401/403 responses from any endpoint.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (%d)", e.StatusCode)
}

// ServerError is returned for any other non-2xx response.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server error (%d)", e.StatusCode)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Body)
}

// IsAuth reports whether err is (or wraps) an AuthError.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsAbort reports whether err stems from cancellation rather than a real
// failure. Abort is expected and never reported as a hard error.
func IsAbort(err error) bool {
	return errors.Is(err, context.Canceled)
}

const maxErrorBody = 512

// statusError classifies a non-2xx status into the error taxonomy.
func statusError(statusCode int, body []byte) error {
	if statusCode == 401 || statusCode == 403 {
		return &AuthError{StatusCode: statusCode}
	}
	excerpt := string(body)
	if len(excerpt) > maxErrorBody {
		excerpt = excerpt[:maxErrorBody]
	}
	return &ServerError{StatusCode: statusCode, Body: excerpt}
}
