package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransport covers network failures and error responses without a
	// structured body.
	ErrTransport = errors.New("network error or unexpected error occurred")

	// ErrUnauthorized matches any 401/403 outcome, structured or not.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMalformedResponse is returned when a successful response body does
	// not match the expected shape.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNoRefreshToken means a refresh was needed but none is stored.
	ErrNoRefreshToken = errors.New("no refresh token")
)

// APIError is the normalized form of the server's structured error body
// {statusCode, errorCode, message}.
type APIError struct {
	StatusCode int    `json:"statusCode"`
	ErrorCode  int    `json:"errorCode"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (code %d): %s", e.StatusCode, e.ErrorCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && isAuthStatus(e.StatusCode)
}

// StatusError is an error response whose body could not be read as an
// APIError. It unwraps to ErrTransport.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: status %d %s", ErrTransport, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%v: status %d: %s", ErrTransport, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrTransport }

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && isAuthStatus(e.StatusCode)
}

// DecodeError reports a response body that failed to decode or validate.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v from %s: %v", ErrMalformedResponse, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrMalformedResponse, e.Err} }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	var stErr *StatusError
	if errors.As(err, &stErr) {
		return stErr.StatusCode
	}
	return 0
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// ErrRefreshFailed wraps the error of a failed refresh attempt. Every request
// that waited on that attempt receives the same wrapped error.
var ErrRefreshFailed = errors.New("session refresh failed")
