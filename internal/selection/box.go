// Package selection вычисляет множества мест по прямоугольной рамке и
// хранит текущее выделение редактора.
package selection

import (
	"github.com/annel0/mudmap/internal/world"
)

// Box возвращает все места слоя внутри рамки между start и end включительно.
// Углы нормализуются; рамка на разных слоях или слой nil дают пустое множество.
func Box(start, end world.WorldCoordinate, layer *world.Layer) world.PlaceSet {
	set := world.NewPlaceSet()
	if layer == nil || start.Layer != end.Layer || start.Layer != layer.ID() {
		return set
	}

	a := start.Cell()
	b := end.Cell()
	for _, place := range layer.Rect(a.X, a.Y, b.X, b.Y) {
		set.Add(place)
	}
	return set
}
