package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caliban/dropzone/internal/adapters/http/api"
	"github.com/caliban/dropzone/internal/adapters/provider"
	"github.com/caliban/dropzone/internal/app"
	"github.com/caliban/dropzone/internal/domain/model"
)

// fakeDeps serves canned analytics without the provider stack.
type fakeDeps struct {
	model     *model.AnalyticalModel
	player    *model.PlayerDoc
	matchErr  error
	playerErr error

	gotPlatform model.Platform
}

func (f *fakeDeps) ProcessTelemetryForMatch(ctx context.Context, matchID string, platform model.Platform) (*model.AnalyticalModel, error) {
	f.gotPlatform = platform
	if f.matchErr != nil {
		return nil, f.matchErr
	}
	return f.model, nil
}

func (f *fakeDeps) LookupPlayer(ctx context.Context, name string, platform model.Platform) (*model.PlayerDoc, error) {
	if f.playerErr != nil {
		return nil, f.playerErr
	}
	return f.player, nil
}

func analyticalFixture() *model.AnalyticalModel {
	start := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	alpha := model.Character{Name: "alpha", TeamID: 1, AccountID: "acc-a", Location: model.Location{X: 5, Y: 5}}
	bravo := model.Character{Name: "bravo", TeamID: 2, AccountID: "acc-b", Location: model.Location{X: 6, Y: 6}}

	return &model.AnalyticalModel{
		MatchID:  "match-1",
		MapName:  "Erangel_Main",
		GameMode: "squad-fpp",
		Verdict:  model.VerdictPublic,
		Start:    &start,
		End:      &end,
		Players: map[string]*model.PlayerAggregate{
			"acc-a": {AccountID: "acc-a", Name: "alpha", TeamID: 1, Kills: 3},
			"acc-b": {AccountID: "acc-b", Name: "bravo", TeamID: 2, Kills: 5},
		},
		Teams: map[int]*model.TeamAggregate{
			1: {TeamID: 1, Rank: 2, PlayerIDs: []string{"acc-a"}},
			2: {TeamID: 2, Rank: 1, Won: true, PlayerIDs: []string{"acc-b"}},
		},
		Kills: []model.PlayerKill{
			{Base: model.Base{TS: start.Add(time.Minute)}, Killer: &bravo, Victim: alpha},
		},
		HotZones: []model.HotZone{{Center: model.Location{X: 100, Y: 100}, PlayerCount: 4, TeamCount: 2}},
	}
}

func newTestServer(t *testing.T, deps *fakeDeps) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec // test server URL
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != wantStatus {
		t.Fatalf("expected status %d, got %d", wantStatus, resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, &fakeDeps{})
	body := getJSON(t, server.URL+"/healthz", http.StatusOK)
	if body["status"] != "ok" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestMatchAnalyticsEndpoint(t *testing.T) {
	deps := &fakeDeps{model: analyticalFixture()}
	server := newTestServer(t, deps)

	body := getJSON(t, server.URL+"/v1/matches/match-1/analytics?platform=kakao", http.StatusOK)

	if body["match_id"] != "match-1" || body["verdict"] != "PUBLIC" {
		t.Errorf("unexpected body: %v", body)
	}
	if body["duration_seconds"].(float64) != 1800 {
		t.Errorf("unexpected duration: %v", body["duration_seconds"])
	}
	if deps.gotPlatform != model.PlatformKakao {
		t.Errorf("platform query not forwarded, got %q", deps.gotPlatform)
	}

	// Players sorted by kills descending.
	players := body["players"].([]any)
	if len(players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(players))
	}
	if players[0].(map[string]any)["name"] != "bravo" {
		t.Errorf("expected top fragger first, got %v", players[0])
	}

	// Teams sorted by rank ascending.
	teams := body["teams"].([]any)
	if teams[0].(map[string]any)["team_id"].(float64) != 2 {
		t.Errorf("expected winning team first, got %v", teams[0])
	}
}

func TestMatchAnalyticsEndpoint_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"match not found", fmt.Errorf("resolve: %w", provider.ErrNotFound), http.StatusNotFound, "not_found"},
		{"upstream exhausted", fmt.Errorf("resolve: %w", provider.ErrUpstreamUnavailable), http.StatusServiceUnavailable, "upstream_unavailable"},
		{"unexpected failure", fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, &fakeDeps{matchErr: tt.err})
			body := getJSON(t, server.URL+"/v1/matches/match-1/analytics", tt.wantStatus)
			if body["code"] != tt.wantCode {
				t.Errorf("expected code %q, got %v", tt.wantCode, body["code"])
			}
		})
	}
}

func TestHeatmapEndpoint(t *testing.T) {
	deps := &fakeDeps{model: analyticalFixture()}
	server := newTestServer(t, deps)

	body := getJSON(t, server.URL+"/v1/matches/match-1/heatmap?type=kills", http.StatusOK)
	if body["type"] != "kills" {
		t.Errorf("unexpected type: %v", body["type"])
	}
	points := body["points"].([]any)
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}

	// Missing type parameter.
	getJSON(t, server.URL+"/v1/matches/match-1/heatmap", http.StatusBadRequest)

	// Unknown kind maps to a bad request.
	body = getJSON(t, server.URL+"/v1/matches/match-1/heatmap?type=velocity", http.StatusBadRequest)
	if body["code"] != "bad_request" {
		t.Errorf("expected bad_request, got %v", body["code"])
	}
}

func TestTimelineEndpoint(t *testing.T) {
	deps := &fakeDeps{model: analyticalFixture()}
	server := newTestServer(t, deps)

	body := getJSON(t, server.URL+"/v1/matches/match-1/timeline", http.StatusOK)
	events := body["events"].([]any)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	row := events[0].(map[string]any)
	if row["kind"] != "kill" || row["actor"] != "bravo" {
		t.Errorf("unexpected timeline row: %v", row)
	}
	if row["seconds_from_start"].(float64) != 60 {
		t.Errorf("unexpected offset: %v", row["seconds_from_start"])
	}
}

func TestPlayerDetailEndpoint(t *testing.T) {
	deps := &fakeDeps{model: analyticalFixture()}
	server := newTestServer(t, deps)

	body := getJSON(t, server.URL+"/v1/matches/match-1/players/acc-a", http.StatusOK)
	player := body["player"].(map[string]any)
	if player["Name"] != "alpha" {
		t.Errorf("unexpected player: %v", player)
	}

	body = getJSON(t, server.URL+"/v1/matches/match-1/players/acc-ghost", http.StatusNotFound)
	if body["code"] != "not_found" {
		t.Errorf("expected not_found, got %v", body["code"])
	}
}

func TestPlayerLookupEndpoint(t *testing.T) {
	deps := &fakeDeps{player: &model.PlayerDoc{
		ID:       "acc-a",
		Name:     "alpha",
		ShardID:  "steam",
		MatchIDs: []string{"m1", "m2"},
	}}
	server := newTestServer(t, deps)

	body := getJSON(t, server.URL+"/v1/players/alpha", http.StatusOK)
	if body["id"] != "acc-a" || body["shard_id"] != "steam" {
		t.Errorf("unexpected body: %v", body)
	}
	matches := body["matches"].([]any)
	if len(matches) != 2 {
		t.Errorf("expected 2 matches, got %d", len(matches))
	}
}

func TestPlayerLookupEndpoint_NotFound(t *testing.T) {
	deps := &fakeDeps{playerErr: fmt.Errorf("resolve: %w", app.ErrPlayerNotFound)}
	server := newTestServer(t, deps)

	body := getJSON(t, server.URL+"/v1/players/ghost", http.StatusNotFound)
	if body["code"] != "not_found" {
		t.Errorf("expected not_found, got %v", body["code"])
	}
}
