package cache

import (
	"context"
	"time"

	"github.com/caliban/dropzone/pkg/logger"
	"github.com/caliban/dropzone/pkg/metrics"
)

// Tier composes the local and remote stores into the read-through /
// write-through cache the provider client talks to.
type Tier struct {
	local  Store
	remote Store // nil when no shared cache is configured
	log    logger.Logger
}

// TierOption applies a configuration option to the Tier.
type TierOption func(*Tier)

// WithRemote attaches a shared remote store.
func WithRemote(remote Store) TierOption {
	return func(t *Tier) {
		t.remote = remote
	}
}

// WithLogger sets a custom logger for the tier.
func WithLogger(log logger.Logger) TierOption {
	return func(t *Tier) {
		if log != nil {
			t.log = log
		}
	}
}

// NewTier creates a cache tier over the given local store.
func NewTier(local Store, opts ...TierOption) *Tier {
	t := &Tier{
		local: local,
		log:   logger.Get().Named("cache"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Get checks the local store first, then the remote store. Remote errors
// degrade to a miss; the remote tier is an optimization, not a source of
// truth.
func (t *Tier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, found, err := t.local.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found {
		metrics.RecordCacheHit(tierLocal)
		return payload, true, nil
	}
	metrics.RecordCacheMiss(tierLocal)

	if t.remote == nil {
		return nil, false, nil
	}

	payload, found, err = t.remote.Get(ctx, key)
	if err != nil {
		t.log.Warn(ctx, "remote cache read failed", logger.String("key", key), logger.Error(err))
		metrics.RecordCacheMiss(tierRemote)
		return nil, false, nil
	}
	if !found {
		metrics.RecordCacheMiss(tierRemote)
		return nil, false, nil
	}
	metrics.RecordCacheHit(tierRemote)
	return payload, true, nil
}

// Set populates the local store synchronously and the remote store
// best-effort. A remote failure never fails the write.
func (t *Tier) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := t.local.Set(ctx, key, payload, ttl); err != nil {
		metrics.RecordCacheWriteError(tierLocal)
		return err
	}
	metrics.RecordCacheWrite(tierLocal)

	if t.remote == nil {
		return nil
	}
	if err := t.remote.Set(ctx, key, payload, ttl); err != nil {
		metrics.RecordCacheWriteError(tierRemote)
		t.log.Warn(ctx, "remote cache write failed", logger.String("key", key), logger.Error(err))
		return nil
	}
	metrics.RecordCacheWrite(tierRemote)
	return nil
}

// Invalidate removes key from both tiers.
func (t *Tier) Invalidate(ctx context.Context, key string) error {
	if err := t.local.Delete(ctx, key); err != nil {
		return err
	}
	if t.remote != nil {
		if err := t.remote.Delete(ctx, key); err != nil {
			t.log.Warn(ctx, "remote cache delete failed", logger.String("key", key), logger.Error(err))
		}
	}
	return nil
}
