// Package telemetry folds a raw telemetry event stream into the normalized
// analytical model for a match.
//
// The engine tolerates partial or malformed telemetry: events that reference
// accounts absent from the match roster are skipped silently, and a stream
// without a MatchEnd simply leaves the duration unset.
package telemetry

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/caliban/dropzone/internal/domain/model"
	"github.com/caliban/dropzone/pkg/metrics"
)

// Default engine configuration constants.
const (
	defaultSampleRate        = 0.10 // fraction of position events kept
	defaultFinalCircleRadius = 1000 // centimeters; circles below this are the final circle
	defaultRandomSeed        = 42
)

// Engine folds telemetry event streams into analytical models.
type Engine struct {
	sampleRate        float64
	finalCircleRadius float64
	seed              int64
}

// NewEngine creates an aggregation engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		sampleRate:        defaultSampleRate,
		finalCircleRadius: defaultFinalCircleRadius,
		seed:              defaultRandomSeed,
	}

	// Apply all options
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Aggregate builds the analytical model for a match from its summary
// document and raw event stream. The input slice is not modified; events are
// stable-sorted by timestamp into a copy before folding so that ties keep
// their original stream order.
func (e *Engine) Aggregate(ctx context.Context, doc *model.MatchDocument, events []model.Event) (*model.AnalyticalModel, error) {
	if doc == nil {
		return nil, ErrNilMatch
	}

	start := time.Now()
	defer func() {
		metrics.RecordAggregationLatency(float64(time.Since(start).Milliseconds()))
	}()

	m := e.buildSkeletons(doc)

	sorted := make([]model.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time().Before(sorted[j].Time())
	})

	// Position subsampling uses a fixed-seed source so a given stream always
	// produces the same paths.
	rng := rand.New(rand.NewSource(e.seed)) //nolint:gosec // deterministic sampling, not security-sensitive

	for _, ev := range sorted {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		e.fold(m, ev, rng)
	}

	metrics.RecordMatchAggregated()
	return m, nil
}

// buildSkeletons creates player and team aggregates from roster membership.
// Roster membership is the ground truth for team assignment.
func (e *Engine) buildSkeletons(doc *model.MatchDocument) *model.AnalyticalModel {
	m := &model.AnalyticalModel{
		MatchID:   doc.ID,
		MapName:   doc.Attributes.MapName,
		GameMode:  doc.Attributes.GameMode,
		CreatedAt: doc.Attributes.CreatedAt,
		Players:   make(map[string]*model.PlayerAggregate),
		Teams:     make(map[int]*model.TeamAggregate),
	}

	byParticipant := make(map[string]*model.Participant, len(doc.Participants))
	for i := range doc.Participants {
		byParticipant[doc.Participants[i].ID] = &doc.Participants[i]
	}

	for i := range doc.Rosters {
		r := &doc.Rosters[i]
		team := &model.TeamAggregate{
			TeamID: r.TeamID,
			Rank:   r.Rank,
			Won:    r.Won,
		}
		for _, pid := range r.ParticipantIDs {
			p, ok := byParticipant[pid]
			if !ok || p.AccountID == "" {
				continue
			}
			team.PlayerIDs = append(team.PlayerIDs, p.AccountID)
			m.Players[p.AccountID] = &model.PlayerAggregate{
				AccountID: p.AccountID,
				Name:      p.Name,
				TeamID:    r.TeamID,
			}
		}
		m.Teams[r.TeamID] = team
	}

	return m
}

// fold dispatches a single event into the model.
func (e *Engine) fold(m *model.AnalyticalModel, ev model.Event, rng *rand.Rand) {
	switch v := ev.(type) {
	case model.MatchStart:
		if m.Start == nil {
			ts := v.TS
			m.Start = &ts
		}

	case model.MatchEnd:
		ts := v.TS
		m.End = &ts

	case model.PlayerPosition:
		player, ok := m.Players[v.Character.AccountID]
		if !ok {
			metrics.RecordEventSkipped()
			return
		}
		// Subsample to bound memory on long matches. Both the player path
		// and the flat positions channel take the same sample.
		if rng.Float64() < e.sampleRate {
			player.Path = append(player.Path, model.PositionSample{
				Location: v.Character.Location,
				Elapsed:  v.ElapsedTime,
				TS:       v.TS,
			})
			m.Positions = append(m.Positions, v)
		}

	case model.PlayerKill:
		if v.Killer != nil {
			if killer, ok := m.Players[v.Killer.AccountID]; ok {
				killer.Kills++
				if team, ok := m.Teams[killer.TeamID]; ok {
					team.Kills++
				}
			}
		}
		if victim, ok := m.Players[v.Victim.AccountID]; ok {
			loc := v.Victim.Location
			victim.DeathLocation = &loc
		}
		m.Kills = append(m.Kills, v)

	case model.PlayerTakeDamage:
		// Only player-vs-player damage counts toward aggregates.
		if v.Attacker != nil && v.Attacker.AccountID != v.Victim.AccountID {
			if attacker, ok := m.Players[v.Attacker.AccountID]; ok {
				attacker.DamageDealt += v.Damage
				if team, ok := m.Teams[attacker.TeamID]; ok {
					team.Damage += v.Damage
				}
			}
			m.Damage = append(m.Damage, v)
		}

	case model.Heal:
		if player, ok := m.Players[v.Character.AccountID]; ok {
			player.Heals++
		}
		m.Heals = append(m.Heals, v)

	case model.PlayerMakeGroggy:
		if v.Attacker != nil {
			if attacker, ok := m.Players[v.Attacker.AccountID]; ok {
				attacker.Knockdowns++
			}
		}
		m.Knockdowns = append(m.Knockdowns, v)

	case model.PlayerRevive:
		if reviver, ok := m.Players[v.Reviver.AccountID]; ok {
			reviver.Revives++
		}
		m.Revives = append(m.Revives, v)

	case model.GameStatePeriodic:
		if m.FinalCircle == nil && v.SafetyZoneRadius > 0 && v.SafetyZoneRadius < e.finalCircleRadius {
			loc := v.SafetyZonePosition
			m.FinalCircle = &loc
		}
		m.Circles = append(m.Circles, v)

	case model.CarePackageSpawn:
		m.CarePackages = append(m.CarePackages, v)

	default:
		// Unknown kinds are ignored explicitly.
		metrics.RecordEventSkipped()
		return
	}

	metrics.RecordEventProcessed()
}
