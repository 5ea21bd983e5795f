package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	// Now is the clock used for expiry.
	Now func() time.Time
}

type memoryEntry struct {
	values  map[string]any
	expires time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string]memoryEntry{}, Now: time.Now}
}

func (m *MemoryStore) Load(_ context.Context, id string) (map[string]any, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok || !m.Now().Before(e.expires) {
		return nil, false, nil
	}
	return copyValues(e.values), true, nil
}

func (m *MemoryStore) Save(_ context.Context, id string, values map[string]any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = memoryEntry{values: copyValues(values), expires: m.Now().Add(ttl)}
	return nil
}

func (m *MemoryStore) GC(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.Now()
	for id, e := range m.sessions {
		if !now.Before(e.expires) {
			delete(m.sessions, id)
		}
	}
	return nil
}

// Len is the number of stored sessions, expired or not.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func copyValues(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
