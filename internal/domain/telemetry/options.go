// Package telemetry folds a raw telemetry event stream into the normalized
// analytical model for a match.
package telemetry

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithSampleRate sets the fraction of position events kept per player.
func WithSampleRate(rate float64) Option {
	return func(e *Engine) {
		if rate > 0 && rate <= 1 {
			e.sampleRate = rate
		}
	}
}

// WithFinalCircleRadius sets the radius below which a circle snapshot is
// recorded as the final-circle location.
func WithFinalCircleRadius(radius float64) Option {
	return func(e *Engine) {
		if radius > 0 {
			e.finalCircleRadius = radius
		}
	}
}

// WithRandomSeed sets the seed for the position subsampling source.
func WithRandomSeed(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}
