// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/caliban/dropzone/internal/domain/model"
)

// PlayerHandler serves player lookups.
type PlayerHandler struct {
	deps Dependencies
}

// NewPlayerHandler creates a new player handler.
func NewPlayerHandler(deps Dependencies) *PlayerHandler {
	return &PlayerHandler{deps: deps}
}

// HandleLookup handles GET /v1/players/{name}.
func (h *PlayerHandler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("api.player", ErrBadRequest))
		return
	}
	platform := model.Platform(r.URL.Query().Get("platform"))

	doc, err := h.deps.LookupPlayer(r.Context(), name, platform)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       doc.ID,
		"name":     doc.Name,
		"shard_id": doc.ShardID,
		"matches":  doc.MatchIDs,
	})
}
