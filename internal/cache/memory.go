package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process TTL cache. Expired entries are dropped lazily
// on read and swept by a background janitor every 5 minutes to prevent
// unbounded growth.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemory creates a Memory cache and starts its janitor.
func NewMemory() *Memory {
	m := &Memory{entries: make(map[string]memoryEntry)}
	go m.janitor()
	return m
}

// Get returns the cached value, or a miss if absent or expired.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return entry.value, true
}

// Set stores a value for the given TTL.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
}

// Delete removes a single key.
func (m *Memory) Delete(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// Clear drops all entries.
func (m *Memory) Clear(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
}

// janitor sweeps expired entries every 5 minutes.
func (m *Memory) janitor() {
	for {
		time.Sleep(5 * time.Minute)
		now := time.Now()
		m.mu.Lock()
		for key, entry := range m.entries {
			if now.After(entry.expiresAt) {
				delete(m.entries, key)
			}
		}
		m.mu.Unlock()
	}
}
