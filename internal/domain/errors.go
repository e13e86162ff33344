package domain

import "errors"

// Common domain errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrDuplicate        = errors.New("resource already exists")
	ErrInvalidKind      = errors.New("unknown recipient kind")
	ErrQueueUnavailable = errors.New("message queue unavailable")
	ErrJobNotLive       = errors.New("job is not live")
)
