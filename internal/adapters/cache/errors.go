package cache

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrInvalidTTL = errors.New("ttl must be positive")
	ErrEmptyKey   = errors.New("cache key must not be empty")
)
