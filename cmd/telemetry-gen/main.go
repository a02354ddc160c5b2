// Command telemetry-gen emits a synthetic match document and telemetry
// stream for local development and load testing, shaped like the upstream
// JSON:API responses.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
)

const (
	teamSize      = 4
	mapEdge       = 400000.0 // centimeters
	dropSpots     = 6
	dropSpread    = 3000.0
	positionTicks = 30
)

func main() {
	var (
		players = flag.Int("players", 64, "number of players")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "rng seed")
		outDir  = flag.String("out", ".", "output directory")
	)
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed)) //nolint:gosec // synthetic data generator

	matchID := uuid.NewString()
	start := time.Now().Add(-time.Hour).UTC()

	match, accounts := buildMatch(rng, matchID, start, *players)
	events := buildTelemetry(rng, start, accounts)

	if err := writeJSON(*outDir+"/match.json", match); err != nil {
		fmt.Fprintln(os.Stderr, "write match:", err)
		os.Exit(1)
	}
	if err := writeJSON(*outDir+"/telemetry.json", events); err != nil {
		fmt.Fprintln(os.Stderr, "write telemetry:", err)
		os.Exit(1)
	}
	fmt.Printf("generated match %s with %d players\n", matchID, *players)
}

type character struct {
	Name      string  `json:"name"`
	TeamID    int     `json:"teamId"`
	AccountID string  `json:"accountId"`
	Location  spot    `json:"location"`
}

type spot struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// buildMatch assembles a JSON:API match document with rosters, participants
// and a telemetry asset pointing at the generated file.
func buildMatch(rng *rand.Rand, matchID string, start time.Time, players int) (map[string]any, []character) {
	var included []map[string]any
	var accounts []character

	teams := (players + teamSize - 1) / teamSize
	for t := 0; t < teams; t++ {
		var participantRefs []map[string]any
		for p := 0; p < teamSize && t*teamSize+p < players; p++ {
			idx := t*teamSize + p
			pid := uuid.NewString()
			acct := character{
				Name:      fmt.Sprintf("player_%02d", idx),
				TeamID:    t + 1,
				AccountID: "account." + uuid.NewString(),
			}
			accounts = append(accounts, acct)
			participantRefs = append(participantRefs, map[string]any{"type": "participant", "id": pid})
			included = append(included, map[string]any{
				"type": "participant",
				"id":   pid,
				"attributes": map[string]any{
					"stats": map[string]any{
						"playerId":    acct.AccountID,
						"name":        acct.Name,
						"kills":       0,
						"damageDealt": 0.0,
						"winPlace":    rng.Intn(teams) + 1,
					},
				},
			})
		}
		included = append(included, map[string]any{
			"type": "roster",
			"id":   uuid.NewString(),
			"attributes": map[string]any{
				"won":   "false",
				"stats": map[string]any{"teamId": t + 1, "rank": t + 1},
			},
			"relationships": map[string]any{
				"participants": map[string]any{"data": participantRefs},
			},
		})
	}

	included = append(included, map[string]any{
		"type": "asset",
		"id":   uuid.NewString(),
		"attributes": map[string]any{
			"name":      "telemetry",
			"URL":       "file://telemetry.json",
			"createdAt": start.Format(time.RFC3339),
		},
	})

	match := map[string]any{
		"data": map[string]any{
			"type": "match",
			"id":   matchID,
			"attributes": map[string]any{
				"createdAt": start.Format(time.RFC3339),
				"duration":  1800,
				"gameMode":  "squad-fpp",
				"mapName":   "Erangel_Main",
				"matchType": "official",
				"shardId":   "steam",
			},
		},
		"included": included,
	}
	return match, accounts
}

// buildTelemetry emits a plausible event stream: a match start, clustered
// early positions around a few drop spots, kills, damage, and a match end.
func buildTelemetry(rng *rand.Rand, start time.Time, accounts []character) []map[string]any {
	var events []map[string]any
	stamp := func(offset time.Duration) string {
		return start.Add(offset).UTC().Format(time.RFC3339)
	}

	events = append(events, map[string]any{"_T": "LogMatchStart", "_D": stamp(0), "mapName": "Erangel_Main"})

	// Assign each team a drop spot; positions scatter around it.
	spots := make([]spot, dropSpots)
	for i := range spots {
		spots[i] = spot{X: rng.Float64() * mapEdge, Y: rng.Float64() * mapEdge}
	}

	for tick := 0; tick < positionTicks; tick++ {
		offset := time.Duration(tick*10) * time.Second
		for i, acct := range accounts {
			s := spots[acct.TeamID%dropSpots]
			c := acct
			c.Location = spot{
				X: s.X + rng.NormFloat64()*dropSpread,
				Y: s.Y + rng.NormFloat64()*dropSpread,
				Z: 100,
			}
			if i%3 != tick%3 { // thin the stream a little
				continue
			}
			events = append(events, map[string]any{
				"_T":          "LogPlayerPosition",
				"_D":          stamp(offset),
				"character":   c,
				"elapsedTime": offset.Seconds(),
			})
		}
	}

	// A burst of damage and kills in the mid game.
	for i := 0; i+1 < len(accounts); i += 2 {
		offset := time.Duration(400+i*7) * time.Second
		killer, victim := accounts[i], accounts[i+1]
		events = append(events, map[string]any{
			"_T":       "LogPlayerTakeDamage",
			"_D":       stamp(offset - 2*time.Second),
			"attacker": killer,
			"victim":   victim,
			"damage":   rng.Float64()*80 + 20,
		})
		events = append(events, map[string]any{
			"_T":               "LogPlayerKillV2",
			"_D":               stamp(offset),
			"killer":           killer,
			"victim":           victim,
			"damageCauserName": "WeapAK47_C",
		})
	}

	events = append(events, map[string]any{"_T": "LogMatchEnd", "_D": stamp(30 * time.Minute)})
	return events
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
