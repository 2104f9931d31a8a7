package world

import (
	"fmt"

	"github.com/annel0/mudmap/internal/vec"
)

// LayerID это идентификатор слоя (уровня карты) внутри мира
type LayerID int

// Layer это разреженный пространственный индекс одного уровня карты:
// целочисленная клетка -> не более одного места.
type Layer struct {
	id     LayerID
	Name   string
	world  *World
	places map[vec.Vec2]*Place
}

// NewLayer создаёт слой вне мира. Для слоёв мира используйте World.NewLayer.
func NewLayer(id LayerID, name string) *Layer {
	return &Layer{
		id:     id,
		Name:   name,
		places: make(map[vec.Vec2]*Place),
	}
}

func (l *Layer) ID() LayerID {
	return l.id
}

// World возвращает мир-владелец (nil для автономного слоя)
func (l *Layer) World() *World {
	return l.world
}

// Get возвращает место в клетке или nil
func (l *Layer) Get(x, y int) *Place {
	return l.places[vec.Vec2{X: x, Y: y}]
}

// Exist проверяет, занята ли клетка
func (l *Layer) Exist(x, y int) bool {
	_, ok := l.places[vec.Vec2{X: x, Y: y}]
	return ok
}

// Put размещает место в клетке (x, y).
// Место, стоящее на другом слое, сначала снимается с него.
func (l *Layer) Put(place *Place, x, y int) error {
	if place == nil {
		return fmt.Errorf("put nil place: %w", ErrPlaceNotFound)
	}
	if place.layer == l {
		return l.Move(place, x, y)
	}

	pos := vec.Vec2{X: x, Y: y}
	if other, ok := l.places[pos]; ok {
		return fmt.Errorf("%w: (%d, %d) on layer %d is taken by %s", ErrPositionOccupied, x, y, l.id, other)
	}

	if place.layer != nil {
		if err := place.layer.Remove(place); err != nil {
			return fmt.Errorf("detach %s from previous layer: %w", place, err)
		}
	}

	l.places[pos] = place
	place.layer = l
	place.pos = pos

	l.notify(Change{Kind: PlaceAdded, Place: place, Layer: l.id, Position: pos})
	return nil
}

// Remove снимает место со слоя.
// ErrPlaceNotFound, если место не проиндексировано здесь по своей координате.
func (l *Layer) Remove(place *Place) error {
	if place == nil || place.layer != l || l.places[place.pos] != place {
		return ErrPlaceNotFound
	}

	delete(l.places, place.pos)
	place.layer = nil

	l.notify(Change{Kind: PlaceRemoved, Place: place, Layer: l.id, Position: place.pos})
	return nil
}

// Move переносит место внутри слоя
func (l *Layer) Move(place *Place, x, y int) error {
	if place == nil || place.layer != l || l.places[place.pos] != place {
		return ErrPlaceNotFound
	}

	pos := vec.Vec2{X: x, Y: y}
	if pos == place.pos {
		return nil
	}
	if other, ok := l.places[pos]; ok {
		return fmt.Errorf("%w: (%d, %d) on layer %d is taken by %s", ErrPositionOccupied, x, y, l.id, other)
	}

	from := place.pos
	delete(l.places, from)
	l.places[pos] = place
	place.pos = pos

	l.notify(Change{Kind: PlaceMoved, Place: place, Layer: l.id, Position: pos, From: from})
	return nil
}

// IsEmpty сообщает, что на слое нет ни одного места
func (l *Layer) IsEmpty() bool {
	return len(l.places) == 0
}

// Len возвращает количество мест на слое
func (l *Layer) Len() int {
	return len(l.places)
}

func (l *Layer) String() string {
	return fmt.Sprintf("layer %d %q", l.id, l.Name)
}

func (l *Layer) notify(c Change) {
	if l.world != nil {
		if c.Layer == 0 {
			c.Layer = l.id
		}
		l.world.notify(c)
	}
}
