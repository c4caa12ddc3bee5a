package favorites

import (
	"context"
	"sync"
)

// KV is the durable key-value collaborator the store persists through. All
// operations are independently failable; a failure never corrupts in-memory
// state.
type KV interface {
	// GetItem returns the stored value and whether the key existed.
	GetItem(ctx context.Context, key string) ([]byte, bool, error)
	SetItem(ctx context.Context, key string, value []byte) error
	RemoveItem(ctx context.Context, key string) error
}

// MemKV is an in-memory KV for tests and ephemeral runs.
type MemKV struct {
	mu    sync.Mutex
	items map[string][]byte
}

// NewMemKV creates an empty in-memory KV.
func NewMemKV() *MemKV {
	return &MemKV{items: make(map[string][]byte)}
}

// GetItem implements KV.
func (m *MemKV) GetItem(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// SetItem implements KV.
func (m *MemKV) SetItem(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = append([]byte(nil), value...)
	return nil
}

// RemoveItem implements KV.
func (m *MemKV) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
