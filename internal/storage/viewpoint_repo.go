package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/mudmap/internal/world"
)

// ErrViewpointNotFound: у пользователя нет сохранённой истории
var ErrViewpointNotFound = errors.New("viewpoints not found")

// ViewpointRepo хранит историю точек обзора редактора.
// История привязана к userID, а не к сеансу, поэтому переживает перезапуск.
type ViewpointRepo interface {
	// Save заменяет историю пользователя (от старых позиций к новым)
	Save(ctx context.Context, userID string, history []world.WorldCoordinate) error

	// Load возвращает историю; found == false, если пользователь новый
	Load(ctx context.Context, userID string) (history []world.WorldCoordinate, found bool, err error)

	// Delete удаляет историю (ErrViewpointNotFound, если её не было)
	Delete(ctx context.Context, userID string) error

	// BatchSave сохраняет истории нескольких пользователей (автосохранение)
	BatchSave(ctx context.Context, histories map[string][]world.WorldCoordinate) error

	Close() error
}

func validateUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("недействительный userID: %q", userID)
	}
	return nil
}
