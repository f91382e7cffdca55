package cache

import (
	"encoding/json"
	"sync"
	"time"

	"datalens/ports"
)

// entry is the stored envelope for one cache slot. Entries are replaced
// wholesale, never partially updated.
type entry struct {
	Data      []byte              `json:"data"`
	Timestamp time.Time           `json:"timestamp"`
	ExpiresAt time.Time           `json:"expires_at"`
	Metadata  ports.EntryMetadata `json:"metadata"`
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

func (e *entry) hasTag(tag string) bool {
	for _, t := range e.Metadata.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func encodeEntry(e *entry) ([]byte, error) {
	return json.Marshal(e)
}

func decodeEntry(raw []byte) (*entry, error) {
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// memoryTier is the fast in-process tier: a mutex-guarded map. All
// access is last-writer-wins; concurrent sets of the same fingerprint are
// benign because identical inputs compute identical results.
type memoryTier struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func newMemoryTier() *memoryTier {
	return &memoryTier{entries: make(map[string]*entry)}
}

func (m *memoryTier) get(key string, now time.Time) (*entry, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if e.expired(now) {
		// Lazy expiry: delete on read, never return stale data.
		m.mu.Lock()
		if cur, still := m.entries[key]; still && cur.expired(now) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false
	}
	return e, true
}

func (m *memoryTier) set(key string, e *entry) {
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
}

func (m *memoryTier) delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// deleteByTag removes every entry whose tags contain tag and returns the
// removed count. Linear scan: the map carries no secondary tag index.
func (m *memoryTier) deleteByTag(tag string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, e := range m.entries {
		if e.hasTag(tag) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

func (m *memoryTier) sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

func (m *memoryTier) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
