// Package clipboard реализует буфер копирования/вырезания групп мест.
//
// Буфер это явное значение, а не глобальное состояние: у каждого сеанса
// редактирования свой буфер, и независимые миры не пересекаются.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/annel0/mudmap/internal/vec"
	"github.com/annel0/mudmap/internal/world"
)

var (
	// ErrEmptyBuffer: вставка без предшествующего копирования/вырезания
	ErrEmptyBuffer = errors.New("clipboard is empty")
	// ErrInsufficientSpace: целевая область занята хотя бы в одной клетке
	ErrInsufficientSpace = errors.New("not enough free space on layer")
)

// Mode определяет, что делает вставка: создаёт копии или переносит оригиналы
type Mode uint8

const (
	ModeNone Mode = iota
	ModeCopy
	ModeCut
)

func (m Mode) String() string {
	switch m {
	case ModeCopy:
		return "copy"
	case ModeCut:
		return "cut"
	default:
		return "none"
	}
}

// Entry это снимок атрибутов места и его смещение от якоря
type Entry struct {
	Place       *world.Place // оригинал; в режиме вырезания переносится именно он
	Offset      vec.Vec2
	Name        string
	Comment     string
	Area        *world.Area
	Placeholder bool
}

// Buffer это однослотовый буфер обмена
type Buffer struct {
	entries []Entry
	mode    Mode
}

// New создаёт пустой буфер
func New() *Buffer {
	return &Buffer{}
}

// Copy запоминает места со смещениями относительно якоря (anchorX, anchorY).
// Предыдущее содержимое заменяется.
func (b *Buffer) Copy(selection []*world.Place, anchorX, anchorY int) {
	b.capture(selection, anchorX, anchorY, ModeCopy)
}

// Cut запоминает места так же, как Copy, но вставка перенесёт оригиналы.
// Сами места при вырезании не трогаются.
func (b *Buffer) Cut(selection []*world.Place, anchorX, anchorY int) {
	b.capture(selection, anchorX, anchorY, ModeCut)
}

func (b *Buffer) capture(selection []*world.Place, anchorX, anchorY int, mode Mode) {
	b.entries = b.entries[:0]
	b.mode = mode

	anchor := vec.Vec2{X: anchorX, Y: anchorY}
	seenPlace := make(map[world.PlaceID]struct{}, len(selection))
	seenOffset := make(map[vec.Vec2]struct{}, len(selection))

	for _, place := range selection {
		if place == nil {
			continue
		}
		if _, dup := seenPlace[place.ID()]; dup {
			continue
		}
		offset := place.Position().Sub(anchor)
		// Две клетки с одинаковым смещением на одну клетку не лягут
		if _, dup := seenOffset[offset]; dup {
			continue
		}
		seenPlace[place.ID()] = struct{}{}
		seenOffset[offset] = struct{}{}

		b.entries = append(b.entries, Entry{
			Place:       place,
			Offset:      offset,
			Name:        place.Name,
			Comment:     place.Comment,
			Area:        place.Area,
			Placeholder: place.IsPlaceholder(),
		})
	}

	if len(b.entries) == 0 {
		b.mode = ModeNone
	}
}

// HasPlaces сообщает, есть ли что вставлять
func (b *Buffer) HasPlaces() bool {
	return len(b.pending()) > 0
}

// Len возвращает количество мест, которые разместит вставка
func (b *Buffer) Len() int {
	return len(b.pending())
}

// pending возвращает записи для вставки. Вырезанное место, которое после
// вырезания удалили из мира, уже не на слое и не переносится.
func (b *Buffer) pending() []Entry {
	if b.mode != ModeCut {
		return b.entries
	}
	live := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		if e.Place.Layer() != nil {
			live = append(live, e)
		}
	}
	return live
}

// Mode возвращает режим последнего захвата
func (b *Buffer) Mode() Mode {
	return b.mode
}

// Entries возвращает копию содержимого буфера
func (b *Buffer) Entries() []Entry {
	result := make([]Entry, len(b.entries))
	copy(result, b.entries)
	return result
}

// Reset очищает буфер
func (b *Buffer) Reset() {
	b.entries = nil
	b.mode = ModeNone
}

// CanPaste проверяет, что все клетки целевой области свободны.
// Ничего не изменяет.
func (b *Buffer) CanPaste(x, y int, layer *world.Layer) bool {
	entries := b.pending()
	if layer == nil || len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		if layer.Exist(x+e.Offset.X, y+e.Offset.Y) {
			return false
		}
	}
	return true
}

// Paste размещает содержимое буфера так, что якорь попадает в (x, y).
// В режиме копирования создаются новые места с сохранёнными атрибутами,
// без путей и связей иерархии. В режиме вырезания переносятся оригиналы
// вместе со всеми их путями, детьми и родителями; после успешной вставки
// буфер очищается.
// Возвращает количество размещённых мест.
func (b *Buffer) Paste(x, y int, layer *world.Layer) (int, error) {
	entries := b.pending()
	if len(entries) == 0 {
		if b.mode == ModeCut {
			b.Reset()
		}
		return 0, ErrEmptyBuffer
	}
	if layer == nil {
		return 0, fmt.Errorf("paste: %w", world.ErrLayerNotFound)
	}
	if !b.CanPaste(x, y, layer) {
		return 0, ErrInsufficientSpace
	}

	switch b.mode {
	case ModeCut:
		n, err := pasteCut(entries, x, y, layer)
		if err != nil {
			return n, err
		}
		b.Reset()
		return n, nil
	default:
		return b.pasteCopy(x, y, layer)
	}
}

func (b *Buffer) pasteCopy(x, y int, layer *world.Layer) (int, error) {
	placed := 0
	for _, e := range b.entries {
		name := e.Name
		if e.Placeholder {
			name = world.PlaceholderName
		}
		place := world.NewPlace(name)
		place.Comment = e.Comment
		place.Area = e.Area

		if err := layer.Put(place, x+e.Offset.X, y+e.Offset.Y); err != nil {
			return placed, fmt.Errorf("paste copy of %q: %w", e.Name, err)
		}
		placed++
	}
	return placed, nil
}

func pasteCut(entries []Entry, x, y int, layer *world.Layer) (int, error) {
	// Сначала освобождаем все исходные клетки, затем занимаем целевые
	for _, e := range entries {
		if src := e.Place.Layer(); src != nil {
			if err := src.Remove(e.Place); err != nil {
				return 0, fmt.Errorf("paste cut: detach %s: %w", e.Place, err)
			}
		}
	}

	placed := 0
	for _, e := range entries {
		if err := layer.Put(e.Place, x+e.Offset.X, y+e.Offset.Y); err != nil {
			return placed, fmt.Errorf("paste cut: place %s: %w", e.Place, err)
		}
		placed++
	}
	return placed, nil
}
