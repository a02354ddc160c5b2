// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"sort"

	"github.com/caliban/dropzone/internal/app"
	"github.com/caliban/dropzone/internal/domain/model"
)

// MatchHandler serves per-match analytics and its derived views.
type MatchHandler struct {
	deps Dependencies
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(deps Dependencies) *MatchHandler {
	return &MatchHandler{deps: deps}
}

// matchAnalyticsResponse is the wire shape of a full analytical model.
type matchAnalyticsResponse struct {
	MatchID         string          `json:"match_id"`
	MapName         string          `json:"map_name"`
	GameMode        string          `json:"game_mode"`
	Verdict         model.Verdict   `json:"verdict"`
	DurationSeconds *float64        `json:"duration_seconds,omitempty"`
	Players         []playerSummary `json:"players"`
	Teams           []teamSummary   `json:"teams"`
	HotZones        []model.HotZone `json:"hot_zones"`
	FinalCircle     *model.Location `json:"final_circle,omitempty"`
}

type playerSummary struct {
	AccountID   string  `json:"account_id"`
	Name        string  `json:"name"`
	TeamID      int     `json:"team_id"`
	Kills       int     `json:"kills"`
	Knockdowns  int     `json:"knockdowns"`
	DamageDealt float64 `json:"damage_dealt"`
	Heals       int     `json:"heals"`
	Revives     int     `json:"revives"`
}

type teamSummary struct {
	TeamID  int      `json:"team_id"`
	Rank    int      `json:"rank"`
	Won     bool     `json:"won"`
	Kills   int      `json:"kills"`
	Damage  float64  `json:"damage"`
	Players []string `json:"players"`
}

// HandleAnalytics handles GET /v1/matches/{id}/analytics.
func (h *MatchHandler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	m, ok := h.resolve(w, r)
	if !ok {
		return
	}

	resp := matchAnalyticsResponse{
		MatchID:     m.MatchID,
		MapName:     m.MapName,
		GameMode:    m.GameMode,
		Verdict:     m.Verdict,
		HotZones:    m.HotZones,
		FinalCircle: m.FinalCircle,
	}
	if d, ok := m.Duration(); ok {
		resp.DurationSeconds = &d
	}

	for _, p := range m.Players {
		resp.Players = append(resp.Players, playerSummary{
			AccountID:   p.AccountID,
			Name:        p.Name,
			TeamID:      p.TeamID,
			Kills:       p.Kills,
			Knockdowns:  p.Knockdowns,
			DamageDealt: p.DamageDealt,
			Heals:       p.Heals,
			Revives:     p.Revives,
		})
	}
	sort.Slice(resp.Players, func(i, j int) bool {
		if resp.Players[i].Kills != resp.Players[j].Kills {
			return resp.Players[i].Kills > resp.Players[j].Kills
		}
		return resp.Players[i].Name < resp.Players[j].Name
	})

	for _, t := range m.Teams {
		resp.Teams = append(resp.Teams, teamSummary{
			TeamID:  t.TeamID,
			Rank:    t.Rank,
			Won:     t.Won,
			Kills:   t.Kills,
			Damage:  t.Damage,
			Players: t.PlayerIDs,
		})
	}
	sort.Slice(resp.Teams, func(i, j int) bool { return resp.Teams[i].Rank < resp.Teams[j].Rank })

	writeJSON(w, http.StatusOK, resp)
}

// HandleHeatmap handles GET /v1/matches/{id}/heatmap?type=kills.
func (h *MatchHandler) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	kind := app.HeatmapKind(r.URL.Query().Get("type"))
	if kind == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("api.heatmap", ErrBadRequest))
		return
	}

	m, ok := h.resolve(w, r)
	if !ok {
		return
	}

	points, err := app.Heatmap(m, kind)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"match_id": m.MatchID,
		"type":     kind,
		"points":   points,
	})
}

// HandleTimeline handles GET /v1/matches/{id}/timeline.
func (h *MatchHandler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	m, ok := h.resolve(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"match_id": m.MatchID,
		"events":   app.Timeline(m),
	})
}

// HandlePlayerDetail handles GET /v1/matches/{id}/players/{account}.
func (h *MatchHandler) HandlePlayerDetail(w http.ResponseWriter, r *http.Request) {
	m, ok := h.resolve(w, r)
	if !ok {
		return
	}
	detail, err := app.PlayerDetailFor(m, r.PathValue("account"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// resolve processes the match named in the path, writing the error response
// on failure.
func (h *MatchHandler) resolve(w http.ResponseWriter, r *http.Request) (*model.AnalyticalModel, bool) {
	matchID := r.PathValue("id")
	if matchID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("api.match", ErrBadRequest))
		return nil, false
	}
	platform := model.Platform(r.URL.Query().Get("platform"))

	m, err := h.deps.ProcessTelemetryForMatch(r.Context(), matchID, platform)
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return m, true
}
