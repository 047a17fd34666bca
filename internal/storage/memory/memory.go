// Package memory is an in-process storage.Storage. Values do not survive a
// restart; it backs the "memory" backend and most tests.
package memory

import (
	"context"
	"sync"

	"github.com/aanand-mishra/student-register/internal/storage"
)

var _ storage.Storage = (*Memory)(nil)

// Memory keeps values in a map guarded by a mutex.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// New returns an empty Memory.
func New() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
