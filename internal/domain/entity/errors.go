package entity

import "errors"

// Standard domain errors
var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded: too many questions in this window")
	ErrInvalidRequest    = errors.New("invalid request parameters")
	ErrResourceNotFound  = errors.New("the requested resource was not found")
	ErrGenerationFailed  = errors.New("answer generation failed")
	ErrEmptyAnswer       = errors.New("generator returned an empty answer")
	ErrInvalidLogEntry   = errors.New("interaction log entry is missing an id")
	ErrInvalidTimeRange  = errors.New("time range must be one of day, week, month, all")

	// ErrProviderUnavailable marks transient model-provider failures worth retrying.
	ErrProviderUnavailable = errors.New("answer provider temporarily unavailable")
)
