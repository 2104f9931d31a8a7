package world

import (
	"fmt"

	"github.com/annel0/mudmap/internal/vec"
)

// WorldCoordinate это позиция вида: слой и непрерывные координаты.
// Клетки мест всегда целочисленные, см. Cell.
type WorldCoordinate struct {
	Layer LayerID `json:"layer"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// NewWorldCoordinate создаёт координату
func NewWorldCoordinate(layer LayerID, x, y float64) WorldCoordinate {
	return WorldCoordinate{Layer: layer, X: x, Y: y}
}

// Cell округляет координату до клетки сетки
func (c WorldCoordinate) Cell() vec.Vec2 {
	return vec.Vec2Float{X: c.X, Y: c.Y}.Round()
}

// Moved возвращает координату, сдвинутую на (dx, dy)
func (c WorldCoordinate) Moved(dx, dy float64) WorldCoordinate {
	return WorldCoordinate{Layer: c.Layer, X: c.X + dx, Y: c.Y + dy}
}

func (c WorldCoordinate) String() string {
	return fmt.Sprintf("%d: %g, %g", c.Layer, c.X, c.Y)
}
