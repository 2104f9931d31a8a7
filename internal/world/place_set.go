package world

// PlaceSet это множество мест по идентификатору
type PlaceSet map[PlaceID]*Place

// NewPlaceSet создаёт множество из перечисленных мест
func NewPlaceSet(places ...*Place) PlaceSet {
	s := make(PlaceSet, len(places))
	for _, p := range places {
		s.Add(p)
	}
	return s
}

func (s PlaceSet) Add(p *Place) {
	if p != nil {
		s[p.id] = p
	}
}

func (s PlaceSet) Remove(p *Place) {
	if p != nil {
		delete(s, p.id)
	}
}

func (s PlaceSet) Contains(p *Place) bool {
	if p == nil {
		return false
	}
	_, ok := s[p.id]
	return ok
}

// Toggle добавляет отсутствующее место или убирает присутствующее
func (s PlaceSet) Toggle(p *Place) {
	if s.Contains(p) {
		s.Remove(p)
	} else {
		s.Add(p)
	}
}

func (s PlaceSet) Len() int {
	return len(s)
}

// Slice возвращает места в построчном порядке
func (s PlaceSet) Slice() []*Place {
	result := make([]*Place, 0, len(s))
	for _, p := range s {
		result = append(result, p)
	}
	sortRowMajor(result)
	return result
}
