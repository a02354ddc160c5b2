// Package classify infers whether a match was ranked, custom, or public.
package classify

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithTeamNamePatterns replaces the known-team-name substrings used by the
// ranked heuristic.
func WithTeamNamePatterns(patterns []string) Option {
	return func(c *Classifier) {
		if len(patterns) > 0 {
			c.teamNamePatterns = patterns
		}
	}
}
