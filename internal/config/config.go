// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Layer an optional YAML file and DROPZONE_-prefixed env vars on top.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// APIKey is the upstream bearer token. Required for live fetches.
	APIKey string `koanf:"api_key"`

	// Platform is the default upstream shard, e.g. "steam".
	Platform string `koanf:"platform"`

	// BaseURL overrides the upstream API base URL (tests, proxies).
	BaseURL string `koanf:"base_url"`

	// MaxRequests caps admissions within any trailing rate window.
	MaxRequests int `koanf:"max_requests"`

	// WindowSeconds is the trailing rate window duration.
	WindowSeconds int `koanf:"window_seconds"`

	// MinSpacingMS is the initial per-endpoint spacing between requests.
	MinSpacingMS int `koanf:"min_spacing_ms"`

	// LowWaterMark raises spacing when upstream remaining quota drops below it.
	LowWaterMark int `koanf:"low_water_mark"`

	// MaxAttempts bounds the retry budget per fetch.
	MaxAttempts int `koanf:"max_attempts"`

	// CacheDir is the local persistent cache directory. Empty selects an
	// in-memory local tier.
	CacheDir string `koanf:"cache_dir"`

	// RedisAddr enables the shared remote cache tier when non-empty.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// MatchTTLHours and PlayerTTLMinutes set the cache TTL classes:
	// match/telemetry payloads are immutable upstream, player lookups drift.
	MatchTTLHours    int `koanf:"match_ttl_hours"`
	PlayerTTLMinutes int `koanf:"player_ttl_minutes"`

	// SampleRate is the position-event subsampling probability.
	SampleRate float64 `koanf:"sample_rate"`

	// FinalCircleRadius marks circles below it as the final circle.
	FinalCircleRadius float64 `koanf:"final_circle_radius"`

	// Hot-zone clustering defaults.
	HotZoneRadius        float64 `koanf:"hot_zone_radius"`
	HotZoneMinPlayers    int     `koanf:"hot_zone_min_players"`
	HotZoneTopK          int     `koanf:"hot_zone_top_k"`
	HotZoneWindowSeconds int     `koanf:"hot_zone_window_seconds"`

	// TeamNamePatterns overrides the ranked-heuristic team-name substrings.
	TeamNamePatterns []string `koanf:"team_name_patterns"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9090",
		Platform:             "steam",
		MaxRequests:          10,
		WindowSeconds:        60,
		MinSpacingMS:         500,
		LowWaterMark:         2,
		MaxAttempts:          3,
		CacheDir:             ".dropzone-cache",
		MatchTTLHours:        24 * 7,
		PlayerTTLMinutes:     5,
		SampleRate:           0.10,
		FinalCircleRadius:    1000,
		HotZoneRadius:        500,
		HotZoneMinPlayers:    3,
		HotZoneTopK:          5,
		HotZoneWindowSeconds: 120,
	}
}
