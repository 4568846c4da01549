package llm

import (
	"fmt"
	"strings"
)

// ErrorType classifies provider failures.
type ErrorType string

const (
	// ErrorTypeTransport covers network failures, timeouts and provider-side
	// HTTP errors. Retried up to the configured budget.
	ErrorTypeTransport ErrorType = "transport_failure"

	// ErrorTypeMalformedResponse covers successful HTTP responses whose body
	// fails JSON-shape validation. Terminal for the request.
	ErrorTypeMalformedResponse ErrorType = "malformed_response"

	// ErrorTypeNoQuery means the model returned an empty SQL statement.
	// Terminal for the request.
	ErrorTypeNoQuery ErrorType = "no_query_generated"
)

// Error represents a structured provider error with classification.
type Error struct {
	Type       ErrorType // Classification of the error
	Message    string    // Human-readable message
	Retryable  bool      // Whether the operation can be retried
	Cause      error     // Underlying error
	StatusCode int       // HTTP status code if applicable
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface.
// This allows the retry package to check retryability without importing llm.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a new structured provider error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// transportError wraps a transport-level failure. Server-side errors and
// rate limits are retryable; other client-side HTTP errors are not.
func transportError(message string, statusCode int, cause error) *Error {
	retryable := statusCode == 0 || statusCode == 429 || statusCode >= 500
	return &Error{
		Type:       ErrorTypeTransport,
		Message:    message,
		Retryable:  retryable,
		Cause:      cause,
		StatusCode: statusCode,
	}
}
