// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/caliban/dropzone/internal/adapters/provider"
	"github.com/caliban/dropzone/internal/app"
	"github.com/caliban/dropzone/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// ProcessTelemetryForMatch resolves and aggregates one match.
	ProcessTelemetryForMatch(ctx context.Context, matchID string, platform model.Platform) (*model.AnalyticalModel, error)

	// LookupPlayer resolves a player document by display name.
	LookupPlayer(ctx context.Context, name string, platform model.Platform) (*model.PlayerDoc, error)
}

// Server wires HTTP routes for the analytics API.
type Server struct {
	healthHandler *HealthHandler
	matchHandler  *MatchHandler
	playerHandler *PlayerHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		matchHandler:  NewMatchHandler(deps),
		playerHandler: NewPlayerHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /v1/matches/{id}/analytics", MetricsMiddleware(s.matchHandler.HandleAnalytics, "match_analytics"))
	mux.HandleFunc("GET /v1/matches/{id}/heatmap", MetricsMiddleware(s.matchHandler.HandleHeatmap, "match_heatmap"))
	mux.HandleFunc("GET /v1/matches/{id}/timeline", MetricsMiddleware(s.matchHandler.HandleTimeline, "match_timeline"))
	mux.HandleFunc("GET /v1/matches/{id}/players/{account}", MetricsMiddleware(s.matchHandler.HandlePlayerDetail, "match_player"))
	mux.HandleFunc("GET /v1/players/{name}", MetricsMiddleware(s.playerHandler.HandleLookup, "player_lookup"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates provider and service errors onto the HTTP
// surface. A 404 tells the caller the resource does not exist; a 503 tells
// them the upstream is throttling or failing and a retry later is sensible.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, provider.ErrNotFound), errors.Is(err, app.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, provider.ErrUpstreamUnavailable):
		writeError(w, http.StatusServiceUnavailable, "upstream_unavailable", err)
	case errors.Is(err, app.ErrUnknownHeatmapKind):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
