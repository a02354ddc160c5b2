// Package hotzone surfaces likely drop locations by clustering early-game
// position samples.
//
// The algorithm is a greedy single pass: each sample either merges into the
// first cluster whose center lies within the configured radius, or starts a
// new cluster. It is order-sensitive and deterministic for a fixed input
// order, and intentionally not k-means/DBSCAN: O(n*clusters) with no
// iterative convergence is a fair trade for a per-request computation.
package hotzone

import (
	"math"
	"sort"

	"github.com/caliban/dropzone/internal/domain/model"
)

// Default clustering configuration constants.
const (
	defaultRadius     = 500.0 // centimeters
	defaultMinPlayers = 3
	defaultTopK       = 5
)

// Clusterer groups position samples into hot zones.
type Clusterer struct {
	radius     float64
	minPlayers int
	topK       int
}

// NewClusterer creates a clusterer with configuration options.
func NewClusterer(opts ...Option) *Clusterer {
	c := &Clusterer{
		radius:     defaultRadius,
		minPlayers: defaultMinPlayers,
		topK:       defaultTopK,
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// cluster accumulates samples around a running-mean center.
type cluster struct {
	sumX, sumY, sumZ float64
	samples          int
	players          map[string]struct{}
	teams            map[int]struct{}
}

func (c *cluster) center() model.Location {
	n := float64(c.samples)
	return model.Location{X: c.sumX / n, Y: c.sumY / n, Z: c.sumZ / n}
}

func (c *cluster) add(p model.PlayerPosition) {
	c.sumX += p.Character.Location.X
	c.sumY += p.Character.Location.Y
	c.sumZ += p.Character.Location.Z
	c.samples++
	c.players[p.Character.AccountID] = struct{}{}
	c.teams[p.Character.TeamID] = struct{}{}
}

// Cluster runs the greedy pass over the given samples. Callers restrict the
// input to an early-match time window; this function only clusters what it
// is handed. Samples are processed earliest-first.
func (c *Clusterer) Cluster(positions []model.PlayerPosition) []model.HotZone {
	sorted := make([]model.PlayerPosition, len(positions))
	copy(sorted, positions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TS.Before(sorted[j].TS)
	})

	var clusters []*cluster
	for i := range sorted {
		p := sorted[i]
		merged := false
		for _, cl := range clusters {
			if distance2D(cl.center(), p.Character.Location) <= c.radius {
				cl.add(p)
				merged = true
				break
			}
		}
		if !merged {
			nc := &cluster{
				players: make(map[string]struct{}),
				teams:   make(map[int]struct{}),
			}
			nc.add(p)
			clusters = append(clusters, nc)
		}
	}

	zones := make([]model.HotZone, 0, len(clusters))
	for _, cl := range clusters {
		if len(cl.players) < c.minPlayers {
			continue
		}
		zones = append(zones, model.HotZone{
			Center:      cl.center(),
			PlayerCount: len(cl.players),
			TeamCount:   len(cl.teams),
		})
	}

	sort.SliceStable(zones, func(i, j int) bool {
		return zones[i].PlayerCount > zones[j].PlayerCount
	})
	if len(zones) > c.topK {
		zones = zones[:c.topK]
	}
	return zones
}

// distance2D ignores altitude; drop locations are a ground-plane concern.
func distance2D(a, b model.Location) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
