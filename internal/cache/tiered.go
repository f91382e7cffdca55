package cache

import (
	"context"
	"sync/atomic"
	"time"

	"datalens/internal"
	"datalens/ports"
)

// DefaultTTL applies when a Set carries no explicit duration.
const DefaultTTL = 5 * time.Minute

// Stats is a point-in-time snapshot of cache behavior.
type Stats struct {
	MemoryEntries  int    `json:"memory_entries"`
	Hits           uint64 `json:"hits"`
	Misses         uint64 `json:"misses"`
	PersistentHits uint64 `json:"persistent_hits"`
	Degraded       bool   `json:"degraded"`
}

// TieredStore implements ports.CacheStore over an in-process map tier and
// an optional persistent tier. The persistent tier survives restarts; on
// a hit there the entry is promoted into memory. Persistent-tier failures
// are logged and absorbed, degrading to memory-only behavior, never
// surfaced to the caller.
//
// TieredStore is constructed explicitly and injected into its callers;
// the process owns its lifecycle (construct once, Close on shutdown).
type TieredStore struct {
	memory     *memoryTier
	persistent ports.KeyValueStore // nil when degraded to memory-only
	defaultTTL time.Duration
	logger     *internal.Logger

	hits           atomic.Uint64
	misses         atomic.Uint64
	persistentHits atomic.Uint64
}

// NewTieredStore creates a cache with the given persistent tier, which
// may be nil for memory-only operation.
func NewTieredStore(persistent ports.KeyValueStore, defaultTTL time.Duration, logger *internal.Logger) *TieredStore {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &TieredStore{
		memory:     newMemoryTier(),
		persistent: persistent,
		defaultTTL: defaultTTL,
		logger:     logger.Named("cache"),
	}
}

// Get checks the memory tier first, then the persistent tier. Expired
// entries are deleted on read, not returned.
func (s *TieredStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	now := time.Now()

	if e, ok := s.memory.get(key, now); ok {
		s.hits.Add(1)
		return e.Data, true, nil
	}

	if s.persistent != nil {
		raw, ok, err := s.persistent.Get(ctx, key)
		if err != nil {
			s.logger.Warn("persistent tier read failed for %s: %v", key, err)
		} else if ok {
			e, err := decodeEntry(raw)
			if err != nil {
				s.logger.Warn("dropping undecodable persistent entry %s: %v", key, err)
				_ = s.persistent.Delete(ctx, key)
			} else if e.expired(now) {
				_ = s.persistent.Delete(ctx, key)
			} else {
				// Promote into the fast tier.
				s.memory.set(key, e)
				s.hits.Add(1)
				s.persistentHits.Add(1)
				return e.Data, true, nil
			}
		}
	}

	s.misses.Add(1)
	return nil, false, nil
}

// Set stores a payload in both tiers, replacing any existing entry
// wholesale.
func (s *TieredStore) Set(ctx context.Context, key string, data []byte, opts ports.SetOptions) error {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	now := time.Now()
	e := &entry{
		Data:      data,
		Timestamp: now,
		ExpiresAt: now.Add(ttl),
		Metadata:  ports.EntryMetadata{Priority: opts.Priority, Tags: opts.Tags},
	}

	s.memory.set(key, e)

	if s.persistent != nil {
		raw, err := encodeEntry(e)
		if err == nil {
			err = s.persistent.Put(ctx, key, raw)
		}
		if err != nil {
			s.logger.Warn("persistent tier write failed for %s: %v", key, err)
		}
	}
	return nil
}

// Invalidate removes an entry from both tiers.
func (s *TieredStore) Invalidate(ctx context.Context, key string) error {
	s.memory.delete(key)
	if s.persistent != nil {
		if err := s.persistent.Delete(ctx, key); err != nil {
			s.logger.Warn("persistent tier delete failed for %s: %v", key, err)
		}
	}
	return nil
}

// InvalidateByTag removes every entry carrying tag across both tiers.
// This is a linear scan over all entries; neither tier keeps a secondary
// tag index.
func (s *TieredStore) InvalidateByTag(ctx context.Context, tag string) (int, error) {
	removed := s.memory.deleteByTag(tag)

	if s.persistent != nil {
		keys, err := s.persistent.Keys(ctx)
		if err != nil {
			s.logger.Warn("persistent tier scan failed: %v", err)
			return removed, nil
		}
		for _, key := range keys {
			raw, ok, err := s.persistent.Get(ctx, key)
			if err != nil || !ok {
				continue
			}
			e, err := decodeEntry(raw)
			if err != nil {
				continue
			}
			if e.hasTag(tag) {
				if err := s.persistent.Delete(ctx, key); err == nil {
					removed++
				}
			}
		}
	}
	return removed, nil
}

// Cleanup sweeps expired entries from both tiers. Expiry is otherwise
// lazy: nothing sweeps on a timer from the read path.
func (s *TieredStore) Cleanup(ctx context.Context) (int, error) {
	now := time.Now()
	removed := s.memory.sweep(now)

	if s.persistent != nil {
		keys, err := s.persistent.Keys(ctx)
		if err != nil {
			s.logger.Warn("persistent tier scan failed: %v", err)
			return removed, nil
		}
		for _, key := range keys {
			raw, ok, err := s.persistent.Get(ctx, key)
			if err != nil || !ok {
				continue
			}
			e, err := decodeEntry(raw)
			if err != nil || e.expired(now) {
				if derr := s.persistent.Delete(ctx, key); derr == nil {
					removed++
				}
			}
		}
	}
	return removed, nil
}

// Stats reports cache counters.
func (s *TieredStore) Stats() Stats {
	return Stats{
		MemoryEntries:  s.memory.len(),
		Hits:           s.hits.Load(),
		Misses:         s.misses.Load(),
		PersistentHits: s.persistentHits.Load(),
		Degraded:       s.persistent == nil,
	}
}

// Close releases the persistent tier.
func (s *TieredStore) Close() error {
	if s.persistent != nil {
		return s.persistent.Close()
	}
	return nil
}
