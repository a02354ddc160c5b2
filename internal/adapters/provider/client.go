package provider

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/caliban/dropzone/internal/adapters/cache"
	"github.com/caliban/dropzone/internal/domain/model"
	"github.com/caliban/dropzone/pkg/logger"
)

// Default client configuration constants.
const (
	defaultBaseURL   = "https://api.pubg.com"
	defaultMatchTTL  = 7 * 24 * time.Hour // matches never change upstream
	defaultPlayerTTL = 5 * time.Minute    // a player's match history does

	endpointPlayers   = "players"
	endpointMatches   = "matches"
	endpointTelemetry = "telemetry"
)

// inflightCall tracks one in-progress fetch so concurrent callers for the
// same cache key share a single upstream request.
type inflightCall struct {
	done    chan struct{}
	payload []byte
	err     error
}

// Client is the read-through repository boundary: player lookups, match
// documents, and telemetry payloads resolve cache-first, else through the
// scheduled fetch path.
type Client struct {
	fetcher   *Fetcher
	tier      *cache.Tier
	baseURL   string
	matchTTL  time.Duration
	playerTTL time.Duration

	mu       sync.Mutex
	inflight map[string]*inflightCall

	log logger.Logger
}

// NewClient creates a repository client with configuration options.
func NewClient(fetcher *Fetcher, tier *cache.Tier, opts ...ClientOption) *Client {
	c := &Client{
		fetcher:   fetcher,
		tier:      tier,
		baseURL:   defaultBaseURL,
		matchTTL:  defaultMatchTTL,
		playerTTL: defaultPlayerTTL,
		inflight:  make(map[string]*inflightCall),
		log:       logger.Get().Named("provider"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetPlayerByName resolves a player document by display name.
func (c *Client) GetPlayerByName(ctx context.Context, name string, platform model.Platform) (*model.PlayerDoc, error) {
	u := fmt.Sprintf("%s/shards/%s/players?filter[playerNames]=%s",
		c.baseURL, platform, url.QueryEscape(name))
	key := fmt.Sprintf("player:%s:name:%s", platform, name)

	payload, err := c.resolve(ctx, FetchRequest{
		EndpointKey: endpointPlayers,
		URL:         u,
		CacheKey:    key,
		CacheTTL:    c.playerTTL,
		Authorize:   true,
	})
	if err != nil {
		return nil, err
	}
	return parsePlayer(payload)
}

// GetPlayerByID resolves a player document by account id.
func (c *Client) GetPlayerByID(ctx context.Context, id string, platform model.Platform) (*model.PlayerDoc, error) {
	u := fmt.Sprintf("%s/shards/%s/players/%s", c.baseURL, platform, url.PathEscape(id))
	key := fmt.Sprintf("player:%s:id:%s", platform, id)

	payload, err := c.resolve(ctx, FetchRequest{
		EndpointKey: endpointPlayers,
		URL:         u,
		CacheKey:    key,
		CacheTTL:    c.playerTTL,
		Authorize:   true,
	})
	if err != nil {
		return nil, err
	}
	return parsePlayer(payload)
}

// GetMatch resolves a match summary document.
func (c *Client) GetMatch(ctx context.Context, matchID string, platform model.Platform) (*model.MatchDocument, error) {
	u := fmt.Sprintf("%s/shards/%s/matches/%s", c.baseURL, platform, url.PathEscape(matchID))
	key := fmt.Sprintf("match:%s:%s", platform, matchID)

	payload, err := c.resolve(ctx, FetchRequest{
		EndpointKey: endpointMatches,
		URL:         u,
		CacheKey:    key,
		CacheTTL:    c.matchTTL,
		Authorize:   true,
	})
	if err != nil {
		return nil, err
	}
	return parseMatch(payload)
}

// GetTelemetry downloads and decodes the raw telemetry event log from its
// asset URL.
func (c *Client) GetTelemetry(ctx context.Context, telemetryURL string) ([]model.Event, error) {
	key := "telemetry:" + telemetryURL

	payload, err := c.resolve(ctx, FetchRequest{
		EndpointKey: endpointTelemetry,
		URL:         telemetryURL,
		CacheKey:    key,
		CacheTTL:    c.matchTTL,
		Authorize:   false,
	})
	if err != nil {
		return nil, err
	}
	return decodeTelemetry(payload), nil
}

// resolve runs the read-through path: cache tier first, else a scheduled
// fetch shared with any concurrent caller asking for the same key.
func (c *Client) resolve(ctx context.Context, req FetchRequest) ([]byte, error) {
	if payload, found, err := c.tier.Get(ctx, req.CacheKey); err == nil && found {
		return payload, nil
	} else if err != nil {
		c.log.Warn(ctx, "cache read failed; falling through to fetch",
			logger.String("key", req.CacheKey), logger.Error(err))
	}

	c.mu.Lock()
	if call, ok := c.inflight[req.CacheKey]; ok {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.payload, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &inflightCall{done: make(chan struct{})}
	c.inflight[req.CacheKey] = call
	c.mu.Unlock()

	call.payload, call.err = c.fetcher.Do(ctx, req)
	close(call.done)

	c.mu.Lock()
	delete(c.inflight, req.CacheKey)
	c.mu.Unlock()

	return call.payload, call.err
}

// parsePlayer extracts a PlayerDoc from a JSON:API response. The lookup by
// name returns a collection; the lookup by id a single resource.
func parsePlayer(payload []byte) (*model.PlayerDoc, error) {
	root := gjson.ParseBytes(payload)
	data := root.Get("data")
	if data.IsArray() {
		arr := data.Array()
		if len(arr) == 0 {
			return nil, fmt.Errorf("%w: empty player collection", ErrNotFound)
		}
		data = arr[0]
	}
	if !data.Exists() {
		return nil, fmt.Errorf("malformed player document: missing data")
	}

	doc := &model.PlayerDoc{
		ID:      data.Get("id").String(),
		Name:    data.Get("attributes.name").String(),
		ShardID: data.Get("attributes.shardId").String(),
	}
	data.Get("relationships.matches.data").ForEach(func(_, m gjson.Result) bool {
		doc.MatchIDs = append(doc.MatchIDs, m.Get("id").String())
		return true
	})
	return doc, nil
}

// parseMatch extracts a MatchDocument from a JSON:API response, resolving
// the included participant, roster, and asset resources.
func parseMatch(payload []byte) (*model.MatchDocument, error) {
	root := gjson.ParseBytes(payload)
	data := root.Get("data")
	if !data.Exists() {
		return nil, fmt.Errorf("malformed match document: missing data")
	}

	attrs := data.Get("attributes")
	createdAt, _ := time.Parse(time.RFC3339, attrs.Get("createdAt").String())

	doc := &model.MatchDocument{
		ID: data.Get("id").String(),
		Attributes: model.MatchAttributes{
			CreatedAt:     createdAt,
			Duration:      int(attrs.Get("duration").Int()),
			GameMode:      attrs.Get("gameMode").String(),
			MapName:       attrs.Get("mapName").String(),
			MatchType:     attrs.Get("matchType").String(),
			ShardID:       attrs.Get("shardId").String(),
			IsCustomMatch: attrs.Get("isCustomMatch").Bool(),
		},
	}

	teamIDs := make(map[string]int)
	root.Get("included").ForEach(func(_, inc gjson.Result) bool {
		switch inc.Get("type").String() {
		case "participant":
			stats := inc.Get("attributes.stats")
			doc.Participants = append(doc.Participants, model.Participant{
				ID:        inc.Get("id").String(),
				AccountID: stats.Get("playerId").String(),
				Name:      stats.Get("name").String(),
				Stats: model.ParticipantStats{
					Kills:       int(stats.Get("kills").Int()),
					DamageDealt: stats.Get("damageDealt").Float(),
					WinPlace:    int(stats.Get("winPlace").Int()),
					RankTier:    stats.Get("rankTier").String(),
				},
			})

		case "roster":
			roster := model.Roster{
				ID:     inc.Get("id").String(),
				TeamID: int(inc.Get("attributes.stats.teamId").Int()),
				Rank:   int(inc.Get("attributes.stats.rank").Int()),
				Won:    inc.Get("attributes.won").String() == "true",
			}
			inc.Get("relationships.participants.data").ForEach(func(_, p gjson.Result) bool {
				roster.ParticipantIDs = append(roster.ParticipantIDs, p.Get("id").String())
				return true
			})
			doc.Rosters = append(doc.Rosters, roster)
			teamIDs[roster.ID] = roster.TeamID

		case "asset":
			created, _ := time.Parse(time.RFC3339, inc.Get("attributes.createdAt").String())
			doc.Assets = append(doc.Assets, model.Asset{
				ID:        inc.Get("id").String(),
				Name:      inc.Get("attributes.name").String(),
				URL:       inc.Get("attributes.URL").String(),
				CreatedAt: created,
			})
		}
		return true
	})

	doc.Attributes.PlayerCount = len(doc.Participants)
	return doc, nil
}
