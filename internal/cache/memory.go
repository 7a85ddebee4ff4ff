package cache

import (
	"sync"
	"time"
)

// MemoryCache is a map-backed Cache safe for concurrent use.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[Key]*Entry
}

// NewMemoryCache creates a cache whose entries expire after ttl (0 keeps them forever).
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now, entries: make(map[Key]*Entry)}
}

func (m *MemoryCache) Get(key Key) (*Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if expired(e.FetchedAt, m.ttl, m.now()) {
		delete(m.entries, key)
		return nil, false, nil
	}
	cp := *e
	cp.Bars = e.Bars.Clone()
	return &cp, true, nil
}

func (m *MemoryCache) Put(key Key, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *entry
	cp.Bars = entry.Bars.Clone()
	m.entries[key] = &cp
	return nil
}

func (m *MemoryCache) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[Key]*Entry)
	return nil
}

func (m *MemoryCache) Close() error { return nil }
