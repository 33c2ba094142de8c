package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type ErrorType string

const (
	ErrorTypeUnknown        ErrorType = "unknown"
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	ErrorTypeAuthentication ErrorType = "authentication_error"
	ErrorTypePermission     ErrorType = "permission_error"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeRateLimit      ErrorType = "rate_limit_exceeded"
	ErrorTypeContextLength  ErrorType = "context_length_exceeded"
	ErrorTypeServerError    ErrorType = "server_error"
	ErrorTypeTimeout        ErrorType = "timeout"
	ErrorTypeConnection     ErrorType = "connection_error"
)

// Error is a provider failure normalised across SDKs.
type Error struct {
	Type       ErrorType
	Provider   Provider
	Status     int
	Message    string
	RetryAfter time.Duration
	Cause      error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (%s, status %d)", e.Provider, e.Message, e.Type, e.Status)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Type)
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Retryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeTimeout, ErrorTypeConnection:
		return true
	}
	return false
}

func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}

func IsRateLimit(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == ErrorTypeRateLimit
}

// typeFromStatus maps an HTTP status to an error type.
func typeFromStatus(status int) ErrorType {
	switch {
	case status == http.StatusBadRequest:
		return ErrorTypeInvalidRequest
	case status == http.StatusUnauthorized:
		return ErrorTypeAuthentication
	case status == http.StatusForbidden:
		return ErrorTypePermission
	case status == http.StatusNotFound:
		return ErrorTypeNotFound
	case status == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrorTypeTimeout
	case status >= 500:
		return ErrorTypeServerError
	}
	return ErrorTypeUnknown
}

func newStatusError(p Provider, status int, msg string, cause error) *Error {
	t := typeFromStatus(status)
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "context length") || strings.Contains(lower, "maximum context") {
		t = ErrorTypeContextLength
	}
	return &Error{Type: t, Provider: p, Status: status, Message: msg, Cause: cause}
}

// wrapTransport classifies errors that never reached the provider.
func wrapTransport(p Provider, err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Type: ErrorTypeTimeout, Provider: p, Message: "request timed out", Cause: err}
	case errors.Is(err, context.Canceled):
		return &Error{Type: ErrorTypeUnknown, Provider: p, Message: "request canceled", Cause: err}
	}
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "connection") || strings.Contains(lower, "no such host") || strings.Contains(lower, "eof") {
		return &Error{Type: ErrorTypeConnection, Provider: p, Message: "connection error", Cause: err}
	}
	return &Error{Type: ErrorTypeUnknown, Provider: p, Message: err.Error(), Cause: err}
}
