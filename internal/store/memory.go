package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps documents in process memory. It is the default backend
// and the one used by tests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[string][]byte{}}
}

func (m *MemoryStore) Put(ctx context.Context, collection, id string, value []byte) error {
	if err := validKey(collection, id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	col, ok := m.data[collection]
	if !ok {
		col = map[string][]byte{}
		m.data[collection] = col
	}
	col[id] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if err := validKey(collection, id); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) List(ctx context.Context, collection string) ([][]byte, error) {
	if collection == "" {
		return nil, ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	col := m.data[collection]
	ids := make([]string, 0, len(col))
	for id := range col {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([][]byte, 0, len(ids))
	for _, id := range ids {
		out = append(out, append([]byte(nil), col[id]...))
	}
	return out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := validKey(collection, id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[collection], id)
	return nil
}
