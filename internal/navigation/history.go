// Package navigation хранит историю точек обзора редактора.
package navigation

import (
	"github.com/annel0/mudmap/internal/world"
)

// DefaultLimit задаёт, сколько позиций хранится по умолчанию
const DefaultLimit = 100

// History это стек посещённых позиций. Пустая история указывает на дом мира.
type History struct {
	entries []world.WorldCoordinate
	limit   int
	home    func() world.WorldCoordinate
}

// NewHistory создаёт историю; home вызывается, когда стек пуст
func NewHistory(limit int, home func() world.WorldCoordinate) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit, home: home}
}

// Push добавляет позицию на вершину. Самые старые записи вытесняются.
func (h *History) Push(c world.WorldCoordinate) {
	h.entries = append(h.entries, c)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append(h.entries[:0], h.entries[over:]...)
	}
}

// Pop снимает текущую позицию и возвращает предыдущую
func (h *History) Pop() world.WorldCoordinate {
	if len(h.entries) > 0 {
		h.entries = h.entries[:len(h.entries)-1]
	}
	return h.Position()
}

// Restore заменяет текущую позицию (вершину стека) на c
func (h *History) Restore(c world.WorldCoordinate) {
	if len(h.entries) == 0 {
		h.entries = append(h.entries, c)
		return
	}
	h.entries[len(h.entries)-1] = c
}

// Reset очищает историю
func (h *History) Reset() {
	h.entries = nil
}

// Position возвращает текущую позицию или дом мира
func (h *History) Position() world.WorldCoordinate {
	if len(h.entries) > 0 {
		return h.entries[len(h.entries)-1]
	}
	if h.home != nil {
		return h.home()
	}
	return world.WorldCoordinate{}
}

// Len возвращает количество записей
func (h *History) Len() int {
	return len(h.entries)
}

// Entries возвращает копию истории, от старых к новым
func (h *History) Entries() []world.WorldCoordinate {
	result := make([]world.WorldCoordinate, len(h.entries))
	copy(result, h.entries)
	return result
}

// SetEntries заменяет историю (восстановление из хранилища)
func (h *History) SetEntries(entries []world.WorldCoordinate) {
	h.entries = nil
	for _, c := range entries {
		h.Push(c)
	}
}
