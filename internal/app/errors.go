package app

import "errors"

// Sentinel kinds for service errors.
var (
	ErrPlayerNotFound     = errors.New("player not in match")
	ErrUnknownHeatmapKind = errors.New("unknown heatmap kind")
)
