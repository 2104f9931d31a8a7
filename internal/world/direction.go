package world

import (
	"fmt"
	"strings"

	"github.com/annel0/mudmap/internal/vec"
)

// Direction это метка слота выхода у места
type Direction string

const (
	North     Direction = "n"
	NorthEast Direction = "ne"
	East      Direction = "e"
	SouthEast Direction = "se"
	South     Direction = "s"
	SouthWest Direction = "sw"
	West      Direction = "w"
	NorthWest Direction = "nw"
	Up        Direction = "up"
	Down      Direction = "down"
)

// Directions перечисляет все метки в порядке приоритета обхода.
// Поиск в ширину раскрывает выходы именно в этом порядке.
var Directions = []Direction{
	North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest, Up, Down,
}

// CompassDirections это восемь направлений, лежащих в плоскости слоя
var CompassDirections = Directions[:8]

// Valid сообщает, является ли метка одной из десяти известных
func (d Direction) Valid() bool {
	switch d {
	case North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest, Up, Down:
		return true
	}
	return false
}

// Opposite возвращает противоположное направление (n↔s, ne↔sw, e↔w, se↔nw, up↔down)
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case NorthEast:
		return SouthWest
	case East:
		return West
	case SouthEast:
		return NorthWest
	case South:
		return North
	case SouthWest:
		return NorthEast
	case West:
		return East
	case NorthWest:
		return SouthEast
	case Up:
		return Down
	case Down:
		return Up
	default:
		return ""
	}
}

// Offset возвращает смещение клетки-соседа по направлению.
// Север смотрит в +Y. Для up/down смещения в плоскости нет, ok == false.
func (d Direction) Offset() (offset vec.Vec2, ok bool) {
	switch d {
	case North:
		return vec.Vec2{X: 0, Y: 1}, true
	case NorthEast:
		return vec.Vec2{X: 1, Y: 1}, true
	case East:
		return vec.Vec2{X: 1, Y: 0}, true
	case SouthEast:
		return vec.Vec2{X: 1, Y: -1}, true
	case South:
		return vec.Vec2{X: 0, Y: -1}, true
	case SouthWest:
		return vec.Vec2{X: -1, Y: -1}, true
	case West:
		return vec.Vec2{X: -1, Y: 0}, true
	case NorthWest:
		return vec.Vec2{X: -1, Y: 1}, true
	}
	return vec.Vec2{}, false
}

func (d Direction) String() string {
	return string(d)
}

// ParseDirection разбирает метку без учёта регистра и пробелов
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
	return d, nil
}
