package ports

import (
	"context"
	"time"
)

// EntryMetadata travels with every cached payload.
type EntryMetadata struct {
	Priority int      `json:"priority"`
	Tags     []string `json:"tags,omitempty"`
}

// SetOptions controls how an entry is stored.
type SetOptions struct {
	TTL      time.Duration // zero means the store's default TTL
	Priority int
	Tags     []string
}

// CacheStore is the two-tier cache contract. Payloads are opaque: the
// store never inspects the cached shape.
type CacheStore interface {
	// Get returns the payload for key, or ok=false when absent or
	// expired. Expiry is lazy: an expired entry is deleted on read.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores a payload, replacing any existing entry wholesale.
	Set(ctx context.Context, key string, data []byte, opts SetOptions) error

	// Invalidate removes an entry by key.
	Invalidate(ctx context.Context, key string) error

	// InvalidateByTag removes every entry whose tags intersect tag.
	// This is a linear scan over both tiers; there is no secondary
	// tag index.
	InvalidateByTag(ctx context.Context, tag string) (removed int, err error)

	// Cleanup sweeps expired entries. Stores never sweep on a timer
	// from the read path.
	Cleanup(ctx context.Context) (removed int, err error)

	Close() error
}

// KeyValueStore is the persistence boundary: an async, possibly-absent
// string-keyed store. The cache layer tolerates initialization failure by
// degrading to in-process-only caching.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Keys lists all stored keys; used by tag invalidation and cleanup.
	Keys(ctx context.Context) ([]string, error)

	Close() error
}
