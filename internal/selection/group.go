package selection

import (
	"github.com/annel0/mudmap/internal/world"
)

// Group это текущее выделение: рамка плюс явно отмеченные места.
// Все отмеченные места лежат на одном слое.
type Group struct {
	boxStart *world.WorldCoordinate
	boxEnd   *world.WorldCoordinate

	layer  world.LayerID
	places world.PlaceSet
}

// NewGroup создаёт пустое выделение
func NewGroup() *Group {
	return &Group{places: world.NewPlaceSet()}
}

// SetBox задаёт рамку выделения
func (g *Group) SetBox(start, end world.WorldCoordinate) {
	g.boxStart = &start
	g.boxEnd = &end
}

// ExtendBox сдвигает конец рамки; если рамки не было, она начинается в from
func (g *Group) ExtendBox(from, to world.WorldCoordinate) {
	if g.boxStart == nil || g.boxStart.Layer != to.Layer {
		g.boxStart = &from
	}
	g.boxEnd = &to
}

// BoxCorners возвращает углы рамки; ok == false, если рамки нет
func (g *Group) BoxCorners() (start, end world.WorldCoordinate, ok bool) {
	if g.boxStart == nil || g.boxEnd == nil {
		return world.WorldCoordinate{}, world.WorldCoordinate{}, false
	}
	return *g.boxStart, *g.boxEnd, true
}

// ClearBox убирает рамку, не трогая отмеченные места
func (g *Group) ClearBox() {
	g.boxStart = nil
	g.boxEnd = nil
}

// Add переключает место в выделении.
// Место с другого слоя сбрасывает прежнее выделение.
func (g *Group) Add(place *world.Place) {
	if place == nil || place.Layer() == nil {
		return
	}
	if id := place.Layer().ID(); id != g.layer {
		g.places = world.NewPlaceSet()
		g.layer = id
	}
	g.places.Toggle(place)
}

// Set заменяет отмеченные места. Места не с первого слоя отбрасываются.
func (g *Group) Set(places []*world.Place) {
	g.places = world.NewPlaceSet()
	g.layer = 0
	for _, p := range places {
		if p == nil || p.Layer() == nil {
			continue
		}
		if g.places.Len() == 0 {
			g.layer = p.Layer().ID()
		}
		if p.Layer().ID() == g.layer {
			g.places.Add(p)
		}
	}
}

// Remove снимает отметку с места
func (g *Group) Remove(place *world.Place) {
	g.places.Remove(place)
}

// Reset очищает и рамку, и отмеченные места
func (g *Group) Reset() {
	g.ClearBox()
	g.places = world.NewPlaceSet()
	g.layer = 0
}

// Contains сообщает, отмечено ли место явно
func (g *Group) Contains(place *world.Place) bool {
	return g.places.Contains(place)
}

// HasSelection сообщает, есть ли хоть что-то выделенное
func (g *Group) HasSelection() bool {
	return g.places.Len() > 0 || g.boxStart != nil
}

// Selection объединяет места из рамки и отмеченные места.
// Рамка на другом слое, чем layer, не учитывается.
func (g *Group) Selection(layer *world.Layer) []*world.Place {
	set := world.NewPlaceSet()
	for _, p := range g.places {
		set.Add(p)
	}
	if start, end, ok := g.BoxCorners(); ok {
		for _, p := range Box(start, end, layer) {
			set.Add(p)
		}
	}
	return set.Slice()
}
