// Package model contains domain models passed between layers.
package model

import "time"

// Platform identifies an upstream shard, e.g. "steam" or "kakao".
type Platform string

// Known platforms.
const (
	PlatformSteam Platform = "steam"
	PlatformKakao Platform = "kakao"
	PlatformXbox  Platform = "xbox"
	PlatformPSN   Platform = "psn"
)

// MatchType values reported by the upstream provider.
const (
	MatchTypeCompetitive = "competitive"
	MatchTypeCustom      = "custom"
	MatchTypeOfficial    = "official"
)

// MatchDocument is the summary document for a single match. Matches never
// change upstream, so the document is immutable once fetched.
type MatchDocument struct {
	ID         string
	Attributes MatchAttributes

	Rosters      []Roster
	Participants []Participant
	Assets       []Asset
}

// MatchAttributes mirrors the attributes block of the upstream match resource.
type MatchAttributes struct {
	CreatedAt     time.Time
	Duration      int // seconds, as reported upstream
	GameMode      string
	MapName       string
	MatchType     string
	ShardID       string
	IsCustomMatch bool
	PlayerCount   int
}

// Roster groups the participants that played as one team in a match.
type Roster struct {
	ID             string
	TeamID         int
	Rank           int
	Won            bool
	ParticipantIDs []string
}

// Participant is a single player's entry in a match.
type Participant struct {
	ID        string
	AccountID string
	Name      string
	Stats     ParticipantStats
}

// ParticipantStats carries the per-participant summary reported upstream.
type ParticipantStats struct {
	Kills       int
	DamageDealt float64
	WinPlace    int
	RankTier    string // empty for non-ranked matches
}

// Asset points to an auxiliary payload attached to a match. The telemetry
// log is exposed as an asset with Name == "telemetry".
type Asset struct {
	ID        string
	Name      string
	URL       string
	CreatedAt time.Time
}

// TelemetryURL returns the URL of the match's telemetry asset, or "" when
// the match document carries none.
func (m *MatchDocument) TelemetryURL() string {
	for _, a := range m.Assets {
		if a.Name == "telemetry" {
			return a.URL
		}
	}
	return ""
}

// RosterFor returns the roster containing the given participant id, or nil.
func (m *MatchDocument) RosterFor(participantID string) *Roster {
	for i := range m.Rosters {
		for _, pid := range m.Rosters[i].ParticipantIDs {
			if pid == participantID {
				return &m.Rosters[i]
			}
		}
	}
	return nil
}

// PlayerDoc is the player lookup result from the upstream provider.
type PlayerDoc struct {
	ID       string
	Name     string
	ShardID  string
	MatchIDs []string
}
