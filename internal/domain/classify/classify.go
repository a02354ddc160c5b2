// Package classify infers whether a match was ranked, custom, or public.
//
// The verdict is a best-effort heuristic, not ground truth. Explicit
// upstream fields short-circuit; otherwise a ranked check runs before a
// weighted custom-match score. False positives and negatives are expected
// and acceptable.
package classify

import (
	"strings"

	"github.com/caliban/dropzone/internal/domain/model"
	"github.com/caliban/dropzone/pkg/metrics"
)

// Default heuristic configuration constants.
const (
	customScoreThreshold = 4
	fullSquadSize        = 4
	fullSquadShare       = 0.6
	sharedPrefixCount    = 3
	minPlayerBand        = 60
	maxPlayerBand        = 64
)

// defaultTeamNamePatterns are participant-name substrings seen on known
// competitive teams. This list is a placeholder policy tuned on observed
// sample data; override it with WithTeamNamePatterns.
var defaultTeamNamePatterns = []string{"4AM", "GEN_", "TSM_", "NAVI", "FAZE"}

// competitiveGameModes are game modes used by scrims and tournaments.
var competitiveGameModes = map[string]struct{}{
	"squad-fpp":         {},
	"esports-squad-fpp": {},
}

// tournamentMaps are maps in the competitive rotation.
var tournamentMaps = map[string]struct{}{
	"Erangel_Main": {},
	"Desert_Main":  {},
	"Baltic_Main":  {},
}

// Rule is one weighted condition of the custom-match score. Keeping the
// table explicit makes the heuristic auditable and testable in isolation.
type Rule struct {
	Name   string
	Weight int
	Check  func(doc *model.MatchDocument) bool
}

// Classifier computes classification verdicts from match documents.
type Classifier struct {
	teamNamePatterns []string
	customRules      []Rule
}

// NewClassifier creates a classifier with configuration options.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		teamNamePatterns: defaultTeamNamePatterns,
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	c.customRules = []Rule{
		{Name: "competitive_game_mode", Weight: 1, Check: hasCompetitiveGameMode},
		{Name: "player_count_band", Weight: 1, Check: inPlayerCountBand},
		{Name: "tournament_map", Weight: 1, Check: onTournamentMap},
		{Name: "full_squads", Weight: 2, Check: mostRostersFullSquads},
		{Name: "shared_name_prefix", Weight: 2, Check: hasSharedNamePrefix},
	}

	return c
}

// Classify returns the verdict for a match document. Decision order:
// explicit upstream fields, then the ranked heuristic, then the weighted
// custom score, else public.
func (c *Classifier) Classify(doc *model.MatchDocument) model.Verdict {
	v := c.classify(doc)
	metrics.RecordClassificationVerdict(strings.ToLower(string(v)))
	return v
}

func (c *Classifier) classify(doc *model.MatchDocument) model.Verdict {
	if doc == nil {
		return model.VerdictPublic
	}

	// Explicit upstream fields win outright.
	switch doc.Attributes.MatchType {
	case model.MatchTypeCompetitive:
		return model.VerdictRanked
	case model.MatchTypeCustom:
		return model.VerdictCustom
	case model.MatchTypeOfficial:
		return model.VerdictPublic
	}
	if doc.Attributes.IsCustomMatch {
		return model.VerdictCustom
	}

	// Ranked takes precedence over custom.
	if c.looksRanked(doc) {
		return model.VerdictRanked
	}

	if c.CustomScore(doc) >= customScoreThreshold {
		return model.VerdictCustom
	}

	return model.VerdictPublic
}

// looksRanked applies the ranked-match heuristic: any participant carrying a
// rank tier is decisive; otherwise a known-team-name pattern inside the
// expected player-count band is taken as a ranked lobby.
func (c *Classifier) looksRanked(doc *model.MatchDocument) bool {
	for i := range doc.Participants {
		if doc.Participants[i].Stats.RankTier != "" {
			return true
		}
	}
	if !inPlayerCountBand(doc) {
		return false
	}
	for i := range doc.Participants {
		name := strings.ToUpper(doc.Participants[i].Name)
		for _, pat := range c.teamNamePatterns {
			if strings.Contains(name, strings.ToUpper(pat)) {
				return true
			}
		}
	}
	return false
}

// CustomScore evaluates the weighted custom-match rule table.
func (c *Classifier) CustomScore(doc *model.MatchDocument) int {
	score := 0
	for _, r := range c.customRules {
		if r.Check(doc) {
			score += r.Weight
		}
	}
	return score
}

func hasCompetitiveGameMode(doc *model.MatchDocument) bool {
	_, ok := competitiveGameModes[doc.Attributes.GameMode]
	return ok
}

func inPlayerCountBand(doc *model.MatchDocument) bool {
	n := doc.Attributes.PlayerCount
	if n == 0 {
		n = len(doc.Participants)
	}
	return n >= minPlayerBand && n <= maxPlayerBand
}

func onTournamentMap(doc *model.MatchDocument) bool {
	_, ok := tournamentMaps[doc.Attributes.MapName]
	return ok
}

// mostRostersFullSquads reports whether at least 60% of rosters field exactly
// four players, the usual shape of an organized scrim lobby.
func mostRostersFullSquads(doc *model.MatchDocument) bool {
	if len(doc.Rosters) == 0 {
		return false
	}
	full := 0
	for i := range doc.Rosters {
		if len(doc.Rosters[i].ParticipantIDs) == fullSquadSize {
			full++
		}
	}
	return float64(full)/float64(len(doc.Rosters)) >= fullSquadShare
}

// hasSharedNamePrefix reports whether three or more participants share a
// clan-tag style name prefix.
func hasSharedNamePrefix(doc *model.MatchDocument) bool {
	counts := make(map[string]int)
	for i := range doc.Participants {
		tag := namePrefix(doc.Participants[i].Name)
		if tag == "" {
			continue
		}
		counts[tag]++
		if counts[tag] >= sharedPrefixCount {
			return true
		}
	}
	return false
}

// namePrefix extracts a clan-tag style prefix: the token before the first
// '_' or '-' when one exists, else the first three characters.
func namePrefix(name string) string {
	if name == "" {
		return ""
	}
	if idx := strings.IndexAny(name, "_-"); idx >= 2 {
		return strings.ToUpper(name[:idx])
	}
	if len(name) < 3 {
		return ""
	}
	return strings.ToUpper(name[:3])
}
