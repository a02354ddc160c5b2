// Package cache provides the two-level read-through/write-through cache in
// front of the upstream provider.
//
// The local tier is the source of truth for cached data; the remote tier is
// a shared optimization whose failures are tolerated. Both tiers expire
// entries per-key, and an entry read past its expiry is treated as absent.
package cache

import (
	"context"
	"time"
)

// Tier names used for metrics labels.
const (
	tierLocal  = "local"
	tierRemote = "remote"
)

// Store is a single cache tier keyed by deterministic cache keys.
type Store interface {
	// Get returns the payload for key, or found=false when the key is
	// absent or expired. Expired entries are evicted on read.
	Get(ctx context.Context, key string) (payload []byte, found bool, err error)

	// Set stores payload under key for ttl. The ttl must be positive.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
