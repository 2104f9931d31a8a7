package world

import "fmt"

// Path связывает два места; у каждого конца своя метка направления.
// Метки не обязаны быть противоположными: односторонние и "кривые"
// проходы строятся так же, как обычные.
type Path struct {
	places [2]*Place
	dirs   [2]Direction
}

// NewPath создаёт путь, но не подключает его. Подключает его Place.ConnectPath.
func NewPath(a *Place, dirA Direction, b *Place, dirB Direction) *Path {
	return &Path{
		places: [2]*Place{a, b},
		dirs:   [2]Direction{dirA, dirB},
	}
}

// Places возвращает оба конца пути
func (p *Path) Places() [2]*Place {
	return p.places
}

// Directions возвращает метки обоих концов
func (p *Path) Directions() [2]Direction {
	return p.dirs
}

// HasPlace проверяет, является ли место концом пути
func (p *Path) HasPlace(place *Place) bool {
	return place != nil && (p.places[0] == place || p.places[1] == place)
}

// Direction возвращает метку конца, принадлежащего place.
// Для петли (оба конца на одном месте) возвращается метка первого конца.
func (p *Path) Direction(place *Place) Direction {
	switch place {
	case p.places[0]:
		return p.dirs[0]
	case p.places[1]:
		return p.dirs[1]
	}
	return ""
}

// OtherPlace возвращает противоположный конец; nil, если place не конец пути
func (p *Path) OtherPlace(place *Place) *Place {
	switch place {
	case p.places[0]:
		return p.places[1]
	case p.places[1]:
		return p.places[0]
	}
	return nil
}

// OtherDirection возвращает метку противоположного конца
func (p *Path) OtherDirection(place *Place) Direction {
	switch place {
	case p.places[0]:
		return p.dirs[1]
	case p.places[1]:
		return p.dirs[0]
	}
	return ""
}

// IsSelfLoop сообщает, что оба конца пути лежат на одном месте
func (p *Path) IsSelfLoop() bool {
	return p.places[0] == p.places[1]
}

func (p *Path) String() string {
	return fmt.Sprintf("%s[%s] <-> %s[%s]", p.places[0], p.dirs[0], p.places[1], p.dirs[1])
}
