package cache

import "errors"

var (
	// ErrInvalidCapacity is returned when the configured maximum size is not positive.
	ErrInvalidCapacity = errors.New("cache capacity must be positive")

	// ErrLoaderPanic wraps a panic recovered from a loader function.
	ErrLoaderPanic = errors.New("cache loader panicked")
)
