package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/annel0/mudmap/internal/world"
)

// ErrWorldNotFound: в хранилище нет мира с таким именем
var ErrWorldNotFound = errors.New("world not found")

// WorldStore хранит снимки миров по имени
type WorldStore interface {
	SaveWorld(ctx context.Context, name string, w *world.World) error
	LoadWorld(ctx context.Context, name string) (*world.World, error)
	DeleteWorld(ctx context.Context, name string) error
	ListWorlds(ctx context.Context) ([]string, error)
	Close() error
}

// MemoryWorldStore держит сжатые снимки в памяти (тесты, локальный запуск)
type MemoryWorldStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryWorldStore() *MemoryWorldStore {
	return &MemoryWorldStore{data: make(map[string][]byte)}
}

func (m *MemoryWorldStore) SaveWorld(ctx context.Context, name string, w *world.World) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := EncodeSnapshot(NewSnapshot(w))
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[name] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryWorldStore) LoadWorld(ctx context.Context, name string) (*world.World, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	data, ok := m.data[name]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrWorldNotFound
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	return snap.Restore()
}

func (m *MemoryWorldStore) DeleteWorld(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[name]; !ok {
		return ErrWorldNotFound
	}
	delete(m.data, name)
	return nil
}

func (m *MemoryWorldStore) ListWorlds(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.data))
	for name := range m.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryWorldStore) Close() error {
	return nil
}
