package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error that occurred during a fetch operation
type ErrorType string

const (
	// ErrorTypeNetwork indicates a network-level error (connection refused, DNS, etc.)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeDecode indicates the response was received but could not be decoded
	ErrorTypeDecode ErrorType = "decode"
	// ErrorTypeInvalidRequest indicates the request itself was rejected or could not be built
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	// ErrorTypeRateLimit indicates the request was rejected due to rate limiting (HTTP 429)
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeServer indicates a server error (HTTP 5xx)
	ErrorTypeServer ErrorType = "server"
	// ErrorTypeTimeout indicates the request timed out
	ErrorTypeTimeout ErrorType = "timeout"
)

// FetchError represents a structured error from a fetch or search operation
type FetchError struct {
	Type       ErrorType
	Retryable  bool
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Kind collapses the error into one of the three caller-facing categories:
// network, decode or invalid_request. Rate limit, server and timeout
// failures are all transport problems and report as network.
func (e *FetchError) Kind() ErrorType {
	switch e.Type {
	case ErrorTypeDecode, ErrorTypeInvalidRequest:
		return e.Type
	default:
		return ErrorTypeNetwork
	}
}

// NewNetworkError creates a network error
func NewNetworkError(cause error) *FetchError {
	return &FetchError{
		Type:      ErrorTypeNetwork,
		Retryable: true,
		Message:   "network request failed",
		Cause:     cause,
	}
}

// NewDecodeError creates a decode error
func NewDecodeError(cause error) *FetchError {
	msg := "response could not be decoded"
	if cause != nil {
		msg = cause.Error()
	}
	return &FetchError{
		Type:      ErrorTypeDecode,
		Retryable: false,
		Message:   msg,
		Cause:     cause,
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(statusCode int, message string) *FetchError {
	return &FetchError{
		Type:       ErrorTypeInvalidRequest,
		Retryable:  false,
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(statusCode int) *FetchError {
	return &FetchError{
		Type:       ErrorTypeRateLimit,
		Retryable:  true,
		StatusCode: statusCode,
		Message:    "rate limit exceeded",
	}
}

// NewServerError creates a server error
func NewServerError(statusCode int) *FetchError {
	return &FetchError{
		Type:       ErrorTypeServer,
		Retryable:  true,
		StatusCode: statusCode,
		Message:    "server returned an error",
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(cause error) *FetchError {
	return &FetchError{
		Type:      ErrorTypeTimeout,
		Retryable: true,
		Message:   "request timed out",
		Cause:     cause,
	}
}

// ClassifyHTTPError classifies an HTTP status code into an appropriate FetchError
func ClassifyHTTPError(statusCode int) *FetchError {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewRateLimitError(statusCode)
	case statusCode >= 500:
		return NewServerError(statusCode)
	case statusCode >= 400:
		return NewInvalidRequestError(statusCode, fmt.Sprintf("client error: HTTP %d", statusCode))
	default:
		return &FetchError{
			Type:       ErrorTypeNetwork,
			Retryable:  false,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("unexpected status code: %d", statusCode),
		}
	}
}

// ClassifyTransportError wraps an error returned before any HTTP status was received.
func ClassifyTransportError(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(err)
	}
	return NewNetworkError(err)
}

// KindOf returns the caller-facing category of err, or "" when err is not a FetchError.
func KindOf(err error) ErrorType {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind()
	}
	return ""
}
