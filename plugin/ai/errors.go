package ai

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies model-pipeline failures so callers can react without
// string matching: the REST layer maps codes to HTTP statuses and the
// auto-extraction flow degrades on parse failures only.
type ErrorCode string

const (
	// ErrCodeConfigurationMissing indicates the provider is not usable as
	// configured, typically a missing API key. Raised before any network
	// call is made.
	ErrCodeConfigurationMissing ErrorCode = "CONFIGURATION_MISSING"
	// ErrCodeProviderFailed indicates the provider call itself failed:
	// transport errors, non-2xx responses, empty completions.
	ErrCodeProviderFailed ErrorCode = "PROVIDER_FAILED"
	// ErrCodeResponseParse indicates the provider answered but the payload
	// could not be decoded into the expected shape.
	ErrCodeResponseParse ErrorCode = "RESPONSE_PARSE_FAILED"
	// ErrCodeRateLimitExceeded indicates the local request limiter refused
	// the call.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeCanceled indicates the operation was canceled or timed out.
	ErrCodeCanceled ErrorCode = "CONTEXT_CANCELED"
)

// Error is a structured error for model operations.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext attaches a key/value pair for logging.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// CodeOf extracts the error code from an error chain. The second return is
// false when no *Error is in the chain.
func CodeOf(err error) (ErrorCode, bool) {
	var aiErr *Error
	if stderrors.As(err, &aiErr) {
		return aiErr.Code, true
	}
	return "", false
}

// IsCode reports whether the error chain carries the given code.
func IsCode(err error, code ErrorCode) bool {
	got, ok := CodeOf(err)
	return ok && got == code
}

// Convenience constructors for the common failures.

// ConfigurationMissing creates a missing-configuration error.
func ConfigurationMissing(msg string) *Error {
	return &Error{Code: ErrCodeConfigurationMissing, Message: msg}
}

// ProviderFailed creates a provider failure error.
func ProviderFailed(msg string, cause error) *Error {
	return &Error{Code: ErrCodeProviderFailed, Message: msg, Cause: cause}
}

// ResponseParseFailed creates a payload decoding error.
func ResponseParseFailed(msg string, cause error) *Error {
	return &Error{Code: ErrCodeResponseParse, Message: msg, Cause: cause}
}

// RateLimitExceeded creates a local rate limit error.
func RateLimitExceeded(msg string) *Error {
	return &Error{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// Canceled creates a cancellation error.
func Canceled(cause error) *Error {
	return &Error{Code: ErrCodeCanceled, Message: "operation canceled", Cause: cause}
}
