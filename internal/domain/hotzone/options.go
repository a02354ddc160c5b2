// Package hotzone surfaces likely drop locations by clustering early-game
// position samples.
package hotzone

// Option applies a configuration option to the Clusterer.
type Option func(*Clusterer)

// WithRadius sets the merge radius in map units.
func WithRadius(radius float64) Option {
	return func(c *Clusterer) {
		if radius > 0 {
			c.radius = radius
		}
	}
}

// WithMinPlayers sets the minimum number of distinct players a cluster must
// contain to appear in the output.
func WithMinPlayers(minPlayers int) Option {
	return func(c *Clusterer) {
		if minPlayers > 0 {
			c.minPlayers = minPlayers
		}
	}
}

// WithTopK caps the number of returned zones.
func WithTopK(topK int) Option {
	return func(c *Clusterer) {
		if topK > 0 {
			c.topK = topK
		}
	}
}
