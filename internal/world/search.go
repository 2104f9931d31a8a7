package world

// Route это результат поиска в ширину: конечное место и цепочка предшественников.
// Вся служебная информация поиска хранится здесь, а не в местах,
// поэтому несколько поисков по неизменяемому графу могут идти одновременно.
type Route struct {
	start *Place
	end   *Place
	pred  map[PlaceID]*Place
}

// End возвращает найденное конечное место
func (r *Route) End() *Place {
	return r.end
}

// Start возвращает начальное место
func (r *Route) Start() *Place {
	return r.start
}

// Predecessor возвращает место, из которого поиск пришёл в p (nil для start)
func (r *Route) Predecessor(p *Place) *Place {
	if p == nil {
		return nil
	}
	return r.pred[p.id]
}

// Places возвращает цепочку мест от start до end включительно
func (r *Route) Places() []*Place {
	var reversed []*Place
	for p := r.end; p != nil; p = r.pred[p.id] {
		reversed = append(reversed, p)
		if p == r.start {
			break
		}
	}

	result := make([]*Place, len(reversed))
	for i, p := range reversed {
		result[len(reversed)-1-i] = p
	}
	return result
}

// Len возвращает длину маршрута в рёбрах
func (r *Route) Len() int {
	return len(r.Places()) - 1
}

// BreadthSearch ищет кратчайший (по числу путей) маршрут от start до end.
// Пути проходимы в обе стороны независимо от меток. Соседи раскрываются
// в порядке Directions, так что среди равных маршрутов выбор детерминирован.
// Возвращает nil, если end недостижимо.
func (w *World) BreadthSearch(start, end *Place) *Route {
	return BreadthSearch(start, end)
}

// BreadthSearch делает то же, что World.BreadthSearch, без привязки к миру
func BreadthSearch(start, end *Place) *Route {
	if start == nil || end == nil {
		return nil
	}

	pred := map[PlaceID]*Place{start.id: nil}
	queue := []*Place{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == end {
			return &Route{start: start, end: end, pred: pred}
		}

		for _, dir := range Directions {
			path := current.exits[dir]
			if path == nil {
				continue
			}
			next := path.OtherPlace(current)
			if next == nil {
				continue
			}
			if _, visited := pred[next.id]; visited {
				continue
			}
			pred[next.id] = current
			queue = append(queue, next)
		}
	}

	return nil
}
