package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store, selected with a memory:// endpoint.
// Entries are not shared between instances.
type MemoryStore struct {
	mu      sync.Mutex
	data    map[string]memoryEntry
	lastTTL time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.data, key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.data[key] = entry
	m.lastTTL = ttl
	return nil
}

// LastTTL returns the ttl of the most recent Set.
func (m *MemoryStore) LastTTL() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTTL
}

// Len returns the number of stored keys, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

func (m *MemoryStore) Close() error {
	return nil
}
