package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps sessions in process. State is stored serialized so
// callers never share slices with the store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

func (m *MemoryStore) Load(ctx context.Context, ref string) (State, bool, error) {
	m.mu.Lock()
	e, ok := m.entries[ref]
	m.mu.Unlock()

	if !ok || !e.expiresAt.After(m.now()) {
		return State{}, false, nil
	}
	var st State
	if err := json.Unmarshal(e.data, &st); err != nil {
		return State{}, false, err
	}
	return st, true, nil
}

func (m *MemoryStore) Save(ctx context.Context, ref string, state State, ttl time.Duration) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[ref] = memoryEntry{data: data, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	delete(m.entries, ref)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) DeleteExpired(ctx context.Context) (int64, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for ref, e := range m.entries {
		if !e.expiresAt.After(now) {
			delete(m.entries, ref)
			n++
		}
	}
	return n, nil
}
