package world

import (
	"math"
	"sort"

	"github.com/annel0/mudmap/internal/vec"
)

// Запросы по области слоя. Результаты всегда в построчном порядке:
// строки сверху вниз (Y убывает), внутри строки X возрастает.

// Neighbors возвращает места в радиусе Чебышёва radius от (x, y), не включая центр
func (l *Layer) Neighbors(x, y, radius int) []*Place {
	if radius <= 0 || len(l.places) == 0 {
		return nil
	}

	top, bottom := addClamped(y, radius), addClamped(y, -radius)
	left, right := addClamped(x, -radius), addClamped(x, radius)

	// Если клеток в квадрате больше, чем мест, дешевле пройти по местам
	if cellsExceed(left, right, bottom, top, len(l.places)) {
		result := make([]*Place, 0)
		for pos, place := range l.places {
			if pos.X == x && pos.Y == y {
				continue
			}
			if absDiff(pos.X, x) <= uint64(radius) && absDiff(pos.Y, y) <= uint64(radius) {
				result = append(result, place)
			}
		}
		sortRowMajor(result)
		return result
	}

	result := make([]*Place, 0)
	scanCells(left, right, bottom, top, func(px, py int) {
		if px == x && py == y {
			return
		}
		if place, ok := l.places[vec.Vec2{X: px, Y: py}]; ok {
			result = append(result, place)
		}
	})
	return result
}

// Rect возвращает места в прямоугольнике; углы могут быть заданы в любом порядке
func (l *Layer) Rect(x1, y1, x2, y2 int) []*Place {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}

	result := make([]*Place, 0)
	if cellsExceed(x1, x2, y1, y2, len(l.places)) {
		for pos, place := range l.places {
			if pos.X >= x1 && pos.X <= x2 && pos.Y >= y1 && pos.Y <= y2 {
				result = append(result, place)
			}
		}
		sortRowMajor(result)
		return result
	}

	scanCells(x1, x2, y1, y2, func(x, y int) {
		if place, ok := l.places[vec.Vec2{X: x, Y: y}]; ok {
			result = append(result, place)
		}
	})
	return result
}

// scanCells обходит прямоугольник построчно, сверху вниз.
// Границы включительные и могут совпадать с пределами int.
func scanCells(x1, x2, y1, y2 int, fn func(x, y int)) {
	for y := y2; ; y-- {
		for x := x1; ; x++ {
			fn(x, y)
			if x == x2 {
				break
			}
		}
		if y == y1 {
			break
		}
	}
}

// cellsExceed сообщает, что в прямоугольнике больше limit клеток.
// Считается в uint64: ширина и высота до произведения ограничены limit.
func cellsExceed(x1, x2, y1, y2, limit int) bool {
	w, h := absDiff(x2, x1), absDiff(y2, y1)
	if w >= uint64(limit) || h >= uint64(limit) {
		return true
	}
	return (w+1)*(h+1) > uint64(limit)
}

// absDiff возвращает |a - b| без переполнения
func absDiff(a, b int) uint64 {
	if a > b {
		return uint64(a) - uint64(b)
	}
	return uint64(b) - uint64(a)
}

// addClamped складывает с насыщением на границах int
func addClamped(a, b int) int {
	sum := a + b
	if b > 0 && sum < a {
		return math.MaxInt
	}
	if b < 0 && sum > a {
		return math.MinInt
	}
	return sum
}

// Places возвращает снимок всех мест слоя
func (l *Layer) Places() []*Place {
	result := make([]*Place, 0, len(l.places))
	for _, place := range l.places {
		result = append(result, place)
	}
	sortRowMajor(result)
	return result
}

// Bounds возвращает минимальный и максимальный углы занятой области.
// ok == false для пустого слоя.
func (l *Layer) Bounds() (lo, hi vec.Vec2, ok bool) {
	for pos := range l.places {
		if !ok {
			lo, hi, ok = pos, pos, true
			continue
		}
		if pos.X < lo.X {
			lo.X = pos.X
		}
		if pos.Y < lo.Y {
			lo.Y = pos.Y
		}
		if pos.X > hi.X {
			hi.X = pos.X
		}
		if pos.Y > hi.Y {
			hi.Y = pos.Y
		}
	}
	return lo, hi, ok
}

func sortRowMajor(places []*Place) {
	sort.Slice(places, func(i, j int) bool {
		a, b := places[i].pos, places[j].pos
		if a.Y != b.Y {
			return a.Y > b.Y
		}
		return a.X < b.X
	})
}
