// Package cache provides ports.CacheStore implementations for evaluation
// outcomes: a bounded in-process LRU, a Redis-backed store and a circuit
// breaker that wraps either.
package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/ahrav/go-schulze/internal/ports"
)

var _ ports.CacheStore = (*MemoryStore)(nil)

// DefaultMemoryCapacity is the entry limit used when NewMemoryStore is
// given a non-positive capacity.
const DefaultMemoryCapacity = 256

// MemoryStore is an LRU cache with optional per-entry expiry. It is safe
// for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	entries *LRU[memoryEntry]
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore creates a MemoryStore holding at most capacity entries.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{
		entries: NewLRU[memoryEntry](capacity),
		now:     time.Now,
	}
}

// Get returns a copy of the value stored under key. Expired entries are
// removed and reported as misses.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		m.entries.Remove(key)
		return nil, false, nil
	}
	return slices.Clone(entry.value), true, nil
}

// Set stores a copy of value, evicting the least recently used entry when
// the store is full.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expiresAt time.Time
	if expiration > 0 {
		expiresAt = m.now().Add(expiration)
	}
	m.entries.Add(key, memoryEntry{value: slices.Clone(value), expiresAt: expiresAt})
	return nil
}

// Delete removes key.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries.Remove(key)
	return nil
}

// Clear removes every entry.
func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries.Purge()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries.Len()
}
