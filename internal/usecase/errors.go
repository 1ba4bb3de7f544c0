package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	ErrQuotaExceeded        = errors.New("upstream daily quota exceeded")
	ErrUpstreamUnauthorized = errors.New("upstream rejected credentials")
	ErrPayloadShape         = errors.New("unexpected upstream payload")
	ErrUpstreamTransient    = errors.New("upstream call failed")
)
