package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/annel0/mudmap/internal/world"
)

// MemoryViewpointRepo реализует ViewpointRepo в памяти.
// Используется, когда Redis/MariaDB не настроены, и в тестах.
// ВНИМАНИЕ: Данные теряются при перезапуске сервера!
type MemoryViewpointRepo struct {
	mu   sync.RWMutex
	data map[string][]world.WorldCoordinate
}

func NewMemoryViewpointRepo() *MemoryViewpointRepo {
	return &MemoryViewpointRepo{
		data: make(map[string][]world.WorldCoordinate),
	}
}

func cloneHistory(h []world.WorldCoordinate) []world.WorldCoordinate {
	out := make([]world.WorldCoordinate, len(h))
	copy(out, h)
	return out
}

func (r *MemoryViewpointRepo) Save(ctx context.Context, userID string, history []world.WorldCoordinate) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[userID] = cloneHistory(history)
	return nil
}

func (r *MemoryViewpointRepo) Load(ctx context.Context, userID string) ([]world.WorldCoordinate, bool, error) {
	if err := validateUserID(userID); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.data[userID]
	if !ok {
		return nil, false, nil
	}
	return cloneHistory(h), true, nil
}

func (r *MemoryViewpointRepo) Delete(ctx context.Context, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[userID]; !ok {
		return fmt.Errorf("%w: %s", ErrViewpointNotFound, userID)
	}
	delete(r.data, userID)
	return nil
}

func (r *MemoryViewpointRepo) BatchSave(ctx context.Context, histories map[string][]world.WorldCoordinate) error {
	if len(histories) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	// Валидация всех записей перед сохранением
	for userID := range histories {
		if err := validateUserID(userID); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, h := range histories {
		r.data[userID] = cloneHistory(h)
	}
	return nil
}

// Count возвращает количество пользователей с историей
func (r *MemoryViewpointRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

func (r *MemoryViewpointRepo) Close() error {
	return nil
}
