package provider

import (
	"errors"
	"fmt"
)

// Sentinel kinds for provider errors.
var (
	// ErrNotFound marks a terminal 404: the resource does not exist
	// upstream. Never retried and never cached as a negative result.
	ErrNotFound = errors.New("resource not found")

	// ErrUpstreamUnavailable marks a transient failure that survived the
	// whole retry budget. Callers should surface "retry later".
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrSchedulerStopped is returned for admissions requested after the
	// scheduler shut down.
	ErrSchedulerStopped = errors.New("scheduler stopped")
)

// StatusError is a terminal client error for a non-404 4xx response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d for %s", e.Code, e.URL)
}
