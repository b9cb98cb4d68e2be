package adapters

import (
	"context"
	"sync"

	"github.com/satriahrh/voicekey/server/domain/repositories"
)

// MemoryKeyValue is an in-memory KeyValue. Values are copied on the way in
// and out.
type MemoryKeyValue struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryKeyValue creates an empty in-memory store
func NewMemoryKeyValue() *MemoryKeyValue {
	return &MemoryKeyValue{entries: make(map[string][]byte)}
}

// Get implements KeyValue
func (m *MemoryKeyValue) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.entries[key]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

// Set implements KeyValue
func (m *MemoryKeyValue) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = append([]byte(nil), value...)
	return nil
}
