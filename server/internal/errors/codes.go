// Package errors classifies engine errors for the REST layer: every failure
// a handler can see maps to one stable code and one HTTP status, so the
// desktop shell can branch on codes instead of parsing messages.
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/ramify-app/ramify/plugin/ai"
	"github.com/ramify-app/ramify/store"
)

// Code is the wire-level error class.
type Code string

const (
	// CodeInvalidArgument covers malformed request bodies, bad filter
	// expressions and out-of-range fields.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	// CodeNotFound covers unknown board, node and summary ids.
	CodeNotFound Code = "NOT_FOUND"
	// CodeInvalidOperation covers graph mutations the store refuses, such
	// as deleting the root or orphaning a node.
	CodeInvalidOperation Code = "INVALID_OPERATION"
	// CodeConfigurationMissing is surfaced before any network call when no
	// provider credential is configured.
	CodeConfigurationMissing Code = "CONFIGURATION_MISSING"
	// CodeProviderFailed carries an upstream model API failure.
	CodeProviderFailed Code = "PROVIDER_FAILED"
	// CodeRateLimited is returned by the AI rate limiter.
	CodeRateLimited Code = "RATE_LIMIT_EXCEEDED"
	// CodeCanceled means the caller went away mid-call.
	CodeCanceled Code = "CANCELED"
	// CodeInternal is the fallback for everything unclassified.
	CodeInternal Code = "INTERNAL"
)

// statusClientClosedRequest is the non-standard status popularized by nginx.
const statusClientClosedRequest = 499

// Classify maps an engine error to its wire code.
func Classify(err error) Code {
	switch {
	case err == nil:
		return ""
	case stderrors.Is(err, store.ErrNodeNotFound),
		stderrors.Is(err, store.ErrBoardNotFound):
		return CodeNotFound
	case stderrors.Is(err, store.ErrInvalidOperation):
		return CodeInvalidOperation
	}
	if code, ok := ai.CodeOf(err); ok {
		switch code {
		case ai.ErrCodeConfigurationMissing:
			return CodeConfigurationMissing
		case ai.ErrCodeProviderFailed, ai.ErrCodeResponseParse:
			return CodeProviderFailed
		case ai.ErrCodeRateLimitExceeded:
			return CodeRateLimited
		case ai.ErrCodeCanceled:
			return CodeCanceled
		}
	}
	return CodeInternal
}

// HTTPStatus returns the response status for a code.
func HTTPStatus(code Code) int {
	switch code {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidOperation:
		return http.StatusConflict
	case CodeConfigurationMissing:
		return http.StatusPreconditionFailed
	case CodeProviderFailed:
		return http.StatusBadGateway
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeCanceled:
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// Payload is the JSON body of every error response.
type Payload struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}
