// Package app provides the core analytics service that implements the
// dependencies required by the HTTP API.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/caliban/dropzone/internal/adapters/cache"
	"github.com/caliban/dropzone/internal/adapters/provider"
	"github.com/caliban/dropzone/internal/config"
	"github.com/caliban/dropzone/internal/domain/classify"
	"github.com/caliban/dropzone/internal/domain/hotzone"
	"github.com/caliban/dropzone/internal/domain/model"
	"github.com/caliban/dropzone/internal/domain/telemetry"
	"github.com/caliban/dropzone/pkg/logger"
)

// Repository resolves players, matches, and telemetry. Satisfied by
// provider.Client; test doubles implement it directly.
type Repository interface {
	GetPlayerByName(ctx context.Context, name string, platform model.Platform) (*model.PlayerDoc, error)
	GetPlayerByID(ctx context.Context, id string, platform model.Platform) (*model.PlayerDoc, error)
	GetMatch(ctx context.Context, matchID string, platform model.Platform) (*model.MatchDocument, error)
	GetTelemetry(ctx context.Context, telemetryURL string) ([]model.Event, error)
}

// Service wires the provider, cache, and domain engines into the analytics
// consumer boundary.
type Service struct {
	mu sync.RWMutex

	cfg  *config.Config
	repo Repository

	engine     *telemetry.Engine
	clusterer  *hotzone.Clusterer
	classifier *classify.Classifier

	scheduler  *provider.Scheduler
	redisStore *cache.RedisStore

	hotZoneWindow time.Duration
	platform      model.Platform

	started bool
	log     logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRepository injects a repository, bypassing the provider wiring. Used
// by tests and embedders that bring their own client.
func WithRepository(repo Repository) Option {
	return func(s *Service) {
		if repo != nil {
			s.repo = repo
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a Service from configuration.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{
		cfg:           cfg,
		hotZoneWindow: time.Duration(cfg.HotZoneWindowSeconds) * time.Second,
		platform:      model.Platform(cfg.Platform),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the domain engines and, unless a repository was
// injected, the full provider stack: cache tier, scheduler, fetch client.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Get().Named("app")
	}

	cfg := s.cfg

	engineOpts := []telemetry.Option{
		telemetry.WithSampleRate(cfg.SampleRate),
		telemetry.WithFinalCircleRadius(cfg.FinalCircleRadius),
	}
	s.engine = telemetry.NewEngine(engineOpts...)

	s.clusterer = hotzone.NewClusterer(
		hotzone.WithRadius(cfg.HotZoneRadius),
		hotzone.WithMinPlayers(cfg.HotZoneMinPlayers),
		hotzone.WithTopK(cfg.HotZoneTopK),
	)

	classifierOpts := []classify.Option{}
	if len(cfg.TeamNamePatterns) > 0 {
		classifierOpts = append(classifierOpts, classify.WithTeamNamePatterns(cfg.TeamNamePatterns))
	}
	s.classifier = classify.NewClassifier(classifierOpts...)

	if s.repo == nil {
		if err := s.buildProvider(ctx); err != nil {
			return err
		}
	}

	s.started = true
	s.log.Info(ctx, "analytics service started",
		logger.String("platform", string(s.platform)),
		logger.Int("max_requests", cfg.MaxRequests),
		logger.Int("window_seconds", cfg.WindowSeconds),
	)
	return nil
}

// buildProvider assembles the cache tier, scheduler, and fetch client from
// configuration. Caller holds s.mu.
func (s *Service) buildProvider(ctx context.Context) error {
	cfg := s.cfg

	var local cache.Store
	if cfg.CacheDir != "" {
		fs, err := cache.NewFileStore(cfg.CacheDir)
		if err != nil {
			return fmt.Errorf("local cache: %w", err)
		}
		local = fs
	} else {
		local = cache.NewMemoryStore()
	}

	tierOpts := []cache.TierOption{}
	if cfg.RedisAddr != "" {
		rs, err := cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			// The remote tier is an optimization; start without it.
			s.log.Warn(ctx, "remote cache unavailable; continuing with local tier only", logger.Error(err))
		} else {
			s.redisStore = rs
			tierOpts = append(tierOpts, cache.WithRemote(rs))
		}
	}
	tier := cache.NewTier(local, tierOpts...)

	s.scheduler = provider.NewScheduler(
		provider.WithMaxRequests(cfg.MaxRequests),
		provider.WithWindow(time.Duration(cfg.WindowSeconds)*time.Second),
		provider.WithMinSpacing(time.Duration(cfg.MinSpacingMS)*time.Millisecond),
		provider.WithLowWaterMark(cfg.LowWaterMark),
	)
	s.scheduler.Start(ctx)

	fetcher := provider.NewFetcher(s.scheduler, tier, cfg.APIKey,
		provider.WithMaxAttempts(cfg.MaxAttempts),
	)

	clientOpts := []provider.ClientOption{
		provider.WithMatchTTL(time.Duration(cfg.MatchTTLHours) * time.Hour),
		provider.WithPlayerTTL(time.Duration(cfg.PlayerTTLMinutes) * time.Minute),
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, provider.WithBaseURL(cfg.BaseURL))
	}
	s.repo = provider.NewClient(fetcher, tier, clientOpts...)
	return nil
}

// Stop shuts down the provider stack.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.redisStore != nil {
		if err := s.redisStore.Close(); err != nil {
			s.log.Warn(ctx, "closing remote cache failed", logger.Error(err))
		}
	}
	s.started = false
	s.log.Info(ctx, "analytics service stopped")
	return nil
}

// ProcessTelemetryForMatch resolves a match and its telemetry, folds the
// events into the analytical model, and enriches it with hot zones and the
// classification verdict.
func (s *Service) ProcessTelemetryForMatch(ctx context.Context, matchID string, platform model.Platform) (*model.AnalyticalModel, error) {
	if platform == "" {
		platform = s.platform
	}

	doc, err := s.repo.GetMatch(ctx, matchID, platform)
	if err != nil {
		return nil, fmt.Errorf("resolve match %s: %w", matchID, err)
	}

	var events []model.Event
	if url := doc.TelemetryURL(); url != "" {
		events, err = s.repo.GetTelemetry(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("resolve telemetry for %s: %w", matchID, err)
		}
	} else {
		s.log.Warn(ctx, "match document carries no telemetry asset", logger.String("match_id", matchID))
	}

	m, err := s.engine.Aggregate(ctx, doc, events)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", matchID, err)
	}

	m.Verdict = s.classifier.Classify(doc)
	m.HotZones = s.clusterer.Cluster(s.earlyPositions(m))

	return m, nil
}

// LookupPlayer resolves a player document by display name on the default
// or given platform.
func (s *Service) LookupPlayer(ctx context.Context, name string, platform model.Platform) (*model.PlayerDoc, error) {
	if platform == "" {
		platform = s.platform
	}
	doc, err := s.repo.GetPlayerByName(ctx, name, platform)
	if err != nil {
		return nil, fmt.Errorf("resolve player %s: %w", name, err)
	}
	return doc, nil
}

// earlyPositions restricts the position channel to the hot-drop window
// after match start.
func (s *Service) earlyPositions(m *model.AnalyticalModel) []model.PlayerPosition {
	var early []model.PlayerPosition
	for _, p := range m.Positions {
		if p.ElapsedTime <= s.hotZoneWindow.Seconds() {
			early = append(early, p)
		}
	}
	return early
}
