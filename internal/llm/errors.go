package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for completion failures. StatusError unwraps to one
// of the first three.
var (
	ErrRateLimited    = errors.New("rate limits exceeded, please try again later")
	ErrQuotaExhausted = errors.New("service credits exhausted")
	ErrUpstream       = errors.New("completion service failed")
	ErrNotConfigured  = errors.New("AI service not configured")
	ErrEmptyResponse  = errors.New("no response generated")
)

// StatusError is a non-success answer from the completion service.
type StatusError struct {
	Status int
	// Detail is the upstream error message or body. It is for logs only
	// and never returned to end users.
	Detail string
	kind   error
}

func newStatusError(status int, detail string) *StatusError {
	kind := ErrUpstream
	switch status {
	case http.StatusTooManyRequests:
		kind = ErrRateLimited
	case http.StatusPaymentRequired:
		kind = ErrQuotaExhausted
	}
	return &StatusError{Status: status, Detail: detail, kind: kind}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.kind, e.Status)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

// HTTPStatus maps a completion error to the status exposed to callers:
// 429 for rate limits, 402 for exhausted quota, 500 for everything else.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrQuotaExhausted):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the short user-facing text for a completion
// error. fallback is used for generic failures ("Chat failed", ...).
func PublicMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "Rate limits exceeded, please try again later."
	case errors.Is(err, ErrQuotaExhausted):
		return "Service credits exhausted."
	case errors.Is(err, ErrNotConfigured):
		return "AI service not configured"
	case errors.Is(err, ErrEmptyResponse):
		return "No response generated"
	default:
		return fallback
	}
}
