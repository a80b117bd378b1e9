package errs

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Third-Party API & LLM Specific Errors
var (
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrUpstream           = errors.New("upstream service failed")
)

// Configuration & Environment Errors
var (
	ErrConfigMissing = errors.New("configuration missing")
)

func NewRateLimitError(service string, retryAfter time.Duration) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusTooManyRequests,
		err:        ErrRateLimitExceeded,
		Details:    fmt.Sprintf("Too many %s requests, retry after %v", service, retryAfter),
	}
}

func NewServiceUnavailableError(service string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrServiceUnavailable,
		Details:    fmt.Sprintf("%s is not available", service),
	}
}

// NewUpstreamError hides provider failures behind a generic message; the cause
// is only logged.
func NewUpstreamError(service string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrUpstream,
		Details:    fmt.Sprintf("%s could not complete the request", service),
		Cause:      cause,
	}
}

func IsServiceUnavailableError(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

func IsUpstreamError(err error) bool {
	return errors.Is(err, ErrUpstream)
}

