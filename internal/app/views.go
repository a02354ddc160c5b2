package app

import (
	"fmt"
	"sort"

	"github.com/caliban/dropzone/internal/domain/model"
)

// HeatmapKind selects the point set extracted from an analytical model.
type HeatmapKind string

// Heatmap kinds.
const (
	HeatmapKills     HeatmapKind = "kills"
	HeatmapDeaths    HeatmapKind = "deaths"
	HeatmapDamage    HeatmapKind = "damage"
	HeatmapDrops     HeatmapKind = "drops"
	HeatmapPositions HeatmapKind = "positions"
)

// Heatmap extracts the point cloud for a kind from the model.
func Heatmap(m *model.AnalyticalModel, kind HeatmapKind) ([]model.Location, error) {
	switch kind {
	case HeatmapKills:
		points := make([]model.Location, 0, len(m.Kills))
		for i := range m.Kills {
			if m.Kills[i].Killer != nil {
				points = append(points, m.Kills[i].Killer.Location)
			}
		}
		return points, nil

	case HeatmapDeaths:
		points := make([]model.Location, 0, len(m.Kills))
		for i := range m.Kills {
			points = append(points, m.Kills[i].Victim.Location)
		}
		return points, nil

	case HeatmapDamage:
		points := make([]model.Location, 0, len(m.Damage))
		for i := range m.Damage {
			points = append(points, m.Damage[i].Victim.Location)
		}
		return points, nil

	case HeatmapDrops:
		points := make([]model.Location, 0, len(m.CarePackages))
		for i := range m.CarePackages {
			points = append(points, m.CarePackages[i].Location)
		}
		return points, nil

	case HeatmapPositions:
		points := make([]model.Location, 0, len(m.Positions))
		for i := range m.Positions {
			points = append(points, m.Positions[i].Character.Location)
		}
		return points, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHeatmapKind, kind)
	}
}

// TimelineEntry is one row of the merged chronological match feed.
type TimelineEntry struct {
	SecondsFromStart float64        `json:"seconds_from_start"`
	Kind             string         `json:"kind"`
	Actor            string         `json:"actor,omitempty"`
	Target           string         `json:"target,omitempty"`
	Location         model.Location `json:"location"`
}

// Timeline merges the kill, knockdown, circle, and care-package channels
// into one chronological feed. Seconds are relative to MatchStart; when the
// stream never contained one, the earliest merged event anchors zero.
func Timeline(m *model.AnalyticalModel) []TimelineEntry {
	type raw struct {
		at    int64 // unix nanos for sorting
		entry TimelineEntry
	}
	var rows []raw

	for i := range m.Kills {
		k := &m.Kills[i]
		e := TimelineEntry{Kind: "kill", Target: k.Victim.Name, Location: k.Victim.Location}
		if k.Killer != nil {
			e.Actor = k.Killer.Name
		}
		rows = append(rows, raw{at: k.TS.UnixNano(), entry: e})
	}
	for i := range m.Knockdowns {
		k := &m.Knockdowns[i]
		e := TimelineEntry{Kind: "knockdown", Target: k.Victim.Name, Location: k.Victim.Location}
		if k.Attacker != nil {
			e.Actor = k.Attacker.Name
		}
		rows = append(rows, raw{at: k.TS.UnixNano(), entry: e})
	}
	for i := range m.Circles {
		c := &m.Circles[i]
		rows = append(rows, raw{at: c.TS.UnixNano(), entry: TimelineEntry{
			Kind:     "circle",
			Location: c.SafetyZonePosition,
		}})
	}
	for i := range m.CarePackages {
		p := &m.CarePackages[i]
		rows = append(rows, raw{at: p.TS.UnixNano(), entry: TimelineEntry{
			Kind:     "care_package",
			Location: p.Location,
		}})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].at < rows[j].at })

	if len(rows) == 0 {
		return nil
	}

	base := rows[0].at
	if m.Start != nil {
		base = m.Start.UnixNano()
	}

	out := make([]TimelineEntry, len(rows))
	for i := range rows {
		e := rows[i].entry
		e.SecondsFromStart = float64(rows[i].at-base) / 1e9
		out[i] = e
	}
	return out
}

// PlayerDetail is the per-player view: the aggregate, the team, and the
// player's personal event feed.
type PlayerDetail struct {
	Player *model.PlayerAggregate `json:"player"`
	Team   *model.TeamAggregate   `json:"team,omitempty"`
	Events []TimelineEntry        `json:"events"`
}

// PlayerDetailFor builds the per-player view for an account id.
func PlayerDetailFor(m *model.AnalyticalModel, accountID string) (*PlayerDetail, error) {
	player, ok := m.Players[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, accountID)
	}

	detail := &PlayerDetail{Player: player}
	if team, ok := m.Teams[player.TeamID]; ok {
		detail.Team = team
	}

	name := player.Name
	for _, e := range Timeline(m) {
		if e.Actor == name || e.Target == name {
			detail.Events = append(detail.Events, e)
		}
	}
	return detail, nil
}
