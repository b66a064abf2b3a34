package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed operation
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindAuth                ErrorKind = "auth"
	KindRateLimit           ErrorKind = "rate_limit"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	KindUnknown             ErrorKind = "unknown"
)

// Validation errors
var (
	ErrValidation    = errors.New("invalid request")
	ErrEmptyPrompt   = fmt.Errorf("%w: prompt cannot be empty", ErrValidation)
	ErrPromptTooLong = fmt.Errorf("%w: prompt exceeds %d characters", ErrValidation, MaxPromptLength)
	ErrInvalidCount  = fmt.Errorf("%w: count must be between %d and %d", ErrValidation, MinImageCount, MaxImageCount)
	ErrInvalidSize   = fmt.Errorf("%w: unsupported size", ErrValidation)
	ErrEmptyModel    = fmt.Errorf("%w: model cannot be empty", ErrValidation)
)

// ErrNoImages is returned when the upstream accepted a request but produced nothing
var ErrNoImages = errors.New("no images returned")

// UpstreamError is returned when the upstream replies with a non-2xx status
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, e.Body)
}

// Kind maps the status code onto the error taxonomy
func (e *UpstreamError) Kind() ErrorKind {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return KindAuth
	case e.StatusCode == http.StatusTooManyRequests:
		return KindRateLimit
	case e.StatusCode >= 500:
		return KindUpstreamUnavailable
	default:
		return KindUnknown
	}
}

// ClassifyError maps any error returned by an upstream port to a kind.
// Errors without a status (transport failures, timeouts) count as
// upstream unavailability.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrValidation) {
		return KindValidation
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Kind()
	}
	if errors.Is(err, ErrNoImages) {
		return KindUnknown
	}
	if errors.Is(err, context.Canceled) {
		return KindUnknown
	}
	return KindUpstreamUnavailable
}
