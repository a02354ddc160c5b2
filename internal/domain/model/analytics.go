package model

import "time"

// Verdict is the heuristic match-type classification. It is derived, never
// stored as ground truth, and recomputed from the current MatchDocument.
type Verdict string

// Classification verdicts.
const (
	VerdictRanked Verdict = "RANKED"
	VerdictCustom Verdict = "CUSTOM"
	VerdictPublic Verdict = "PUBLIC"
)

// PositionSample is one subsampled point on a player's path.
type PositionSample struct {
	Location Location
	Elapsed  float64 // seconds since match start as reported by the event
	TS       time.Time
}

// PlayerAggregate holds the per-player statistics folded out of telemetry.
// Counters only increase while folding; the aggregate is read-only once the
// event stream is exhausted.
type PlayerAggregate struct {
	AccountID     string
	Name          string
	TeamID        int
	Kills         int
	Knockdowns    int
	DamageDealt   float64
	Heals         int
	Revives       int
	DeathLocation *Location
	Path          []PositionSample
}

// TeamAggregate holds per-team statistics derived from roster membership.
type TeamAggregate struct {
	TeamID    int
	Rank      int
	Won       bool
	PlayerIDs []string
	Kills     int
	Damage    float64
}

// HotZone is a cluster of early-game landing positions. Ephemeral, computed
// per analytics request and never persisted.
type HotZone struct {
	Center      Location
	PlayerCount int
	TeamCount   int
}

// AnalyticalModel is the normalized output of telemetry aggregation for one
// match, enriched with clustering and classification. Immutable once built.
type AnalyticalModel struct {
	MatchID   string
	MapName   string
	GameMode  string
	CreatedAt time.Time
	Verdict   Verdict

	// Match bounds from MatchStart/MatchEnd. End stays nil when the stream
	// never contains a MatchEnd; duration is then unset, not an error.
	Start *time.Time
	End   *time.Time

	Players map[string]*PlayerAggregate // keyed by account id
	Teams   map[int]*TeamAggregate      // keyed by team id

	// Event channels in processed (timestamp) order.
	Kills        []PlayerKill
	Damage       []PlayerTakeDamage
	Knockdowns   []PlayerMakeGroggy
	Revives      []PlayerRevive
	Heals        []Heal
	CarePackages []CarePackageSpawn
	Circles      []GameStatePeriodic
	Positions    []PlayerPosition

	// FinalCircle is the first circle observed below the final-radius
	// threshold, when the match got that far.
	FinalCircle *Location

	HotZones []HotZone
}

// Duration returns the match duration in seconds and whether both bounds
// were observed in the telemetry stream.
func (m *AnalyticalModel) Duration() (float64, bool) {
	if m.Start == nil || m.End == nil {
		return 0, false
	}
	return m.End.Sub(*m.Start).Seconds(), true
}
