package telemetry

import "errors"

// Sentinel kinds for aggregation errors.
var (
	ErrNilMatch = errors.New("nil match document")
)
