package config

import "errors"

var (
	// ErrInvalidDuration is returned by Validate when a time.Duration field is negative.
	ErrInvalidDuration = errors.New("config: duration must be non-negative")
	// ErrInvalidThreshold is returned by Validate when a threshold field is out of range.
	ErrInvalidThreshold = errors.New("config: threshold must be positive")
)
