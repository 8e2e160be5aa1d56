package sharedstate

import (
	"context"
	"sync"
	"time"
)

// Store is the shared mutable state collaborator. A single-process deployment
// uses the in-memory store; multi-process deployments point it at Redis so
// per-user limits hold across processes.
type Store interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set unconditionally writes the value. A positive ttl expires the key;
	// zero keeps it until overwritten.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// CompareAndSwap writes value only if the current value equals old.
	// An empty old means the key must not exist. The ttl applies like Set.
	// Reports whether the swap was applied.
	CompareAndSwap(ctx context.Context, key, old, value string, ttl time.Duration) (bool, error)
}

type memoryEntry struct {
	value     string
	touchedAt time.Time
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is a mutex-guarded in-process Store.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if ok && entry.expired(time.Now()) {
		delete(m.entries, key)
		return "", false, nil
	}
	return entry.value, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = newMemoryEntry(value, ttl)
	return nil
}

func (m *Memory) CompareAndSwap(_ context.Context, key, old, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if ok && entry.expired(time.Now()) {
		delete(m.entries, key)
		ok = false
	}
	if ok && entry.value != old {
		return false, nil
	}
	if !ok && old != "" {
		return false, nil
	}
	m.entries[key] = newMemoryEntry(value, ttl)
	return true, nil
}

func newMemoryEntry(value string, ttl time.Duration) memoryEntry {
	now := time.Now()
	entry := memoryEntry{value: value, touchedAt: now}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	return entry
}

// Prune drops entries not written since the cutoff. Called periodically to
// keep per-user throttle state from accumulating forever.
func (m *Memory) Prune(before time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, entry := range m.entries {
		if entry.touchedAt.Before(before) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}
