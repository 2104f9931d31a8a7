package world

import (
	"fmt"
	"sort"

	"github.com/annel0/mudmap/internal/vec"
	"github.com/google/uuid"
)

// PlaceholderName это зарезервированное имя места-заглушки без содержимого
const PlaceholderName = "?"

// PlaceID это стабильный непрозрачный идентификатор места
type PlaceID string

// NewPlaceID генерирует новый идентификатор (UUID v4)
func NewPlaceID() PlaceID {
	return PlaceID(uuid.NewString())
}

// Place это узел графа мира, занимающий одну клетку одного слоя
type Place struct {
	id      PlaceID
	Name    string
	Comment string
	Area    *Area

	layer *Layer
	pos   vec.Vec2

	exits    map[Direction]*Path
	children map[PlaceID]*Place
	parents  map[PlaceID]*Place
}

// NewPlace создаёт место, ещё не размещённое ни на одном слое
func NewPlace(name string) *Place {
	return NewPlaceWithID(NewPlaceID(), name)
}

// NewPlaceWithID создаёт место с заданным идентификатором (восстановление из снимка)
func NewPlaceWithID(id PlaceID, name string) *Place {
	return &Place{
		id:       id,
		Name:     name,
		exits:    make(map[Direction]*Path),
		children: make(map[PlaceID]*Place),
		parents:  make(map[PlaceID]*Place),
	}
}

// NewPlaceholder создаёт место-заглушку
func NewPlaceholder() *Place {
	return NewPlace(PlaceholderName)
}

func (p *Place) ID() PlaceID {
	return p.id
}

// Layer возвращает слой, на котором размещено место (nil, если не размещено)
func (p *Place) Layer() *Layer {
	return p.layer
}

func (p *Place) X() int {
	return p.pos.X
}

func (p *Place) Y() int {
	return p.pos.Y
}

// Position возвращает координату клетки на слое
func (p *Place) Position() vec.Vec2 {
	return p.pos
}

// Coordinate возвращает координату места в мире; ok == false, если место не на слое
func (p *Place) Coordinate() (WorldCoordinate, bool) {
	if p.layer == nil {
		return WorldCoordinate{}, false
	}
	return WorldCoordinate{Layer: p.layer.id, X: float64(p.pos.X), Y: float64(p.pos.Y)}, true
}

// IsPlaceholder сообщает, является ли место заглушкой
func (p *Place) IsPlaceholder() bool {
	return p.Name == PlaceholderName
}

// Exit возвращает путь в слоте направления или nil
func (p *Place) Exit(dir Direction) *Path {
	return p.exits[dir]
}

// PathTo возвращает место на другом конце выхода dir или nil
func (p *Place) PathTo(dir Direction) *Place {
	path := p.exits[dir]
	if path == nil {
		return nil
	}
	return path.OtherPlace(p)
}

// Paths возвращает все подключённые пути без повторов.
// Порядок следует приоритету направлений.
func (p *Place) Paths() []*Path {
	result := make([]*Path, 0, len(p.exits))
	seen := make(map[*Path]struct{}, len(p.exits))
	for _, dir := range Directions {
		path, ok := p.exits[dir]
		if !ok {
			continue
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		result = append(result, path)
	}
	return result
}

// PathsTo возвращает пути, дальний конец которых равен other
func (p *Place) PathsTo(other *Place) []*Path {
	var result []*Path
	for _, path := range p.Paths() {
		if path.OtherPlace(p) == other {
			result = append(result, path)
		}
	}
	return result
}

// ConnectPath регистрирует путь на обоих концах атомарно:
// либо оба слота заняты этим путём, либо ничего не изменилось.
func (p *Place) ConnectPath(path *Path) error {
	if path == nil || !path.HasPlace(p) {
		return ErrForeignPath
	}

	a, b := path.places[0], path.places[1]
	dirA, dirB := path.dirs[0], path.dirs[1]
	if !dirA.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, dirA)
	}
	if !dirB.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, dirB)
	}

	if a.exits[dirA] != nil {
		return fmt.Errorf("%w: %s at %s", ErrSlotOccupied, dirA, a)
	}
	if b.exits[dirB] != nil {
		return fmt.Errorf("%w: %s at %s", ErrSlotOccupied, dirB, b)
	}
	// Петля в один и тот же слот заняла бы его дважды
	if a == b && dirA == dirB {
		return fmt.Errorf("%w: %s at %s", ErrSlotOccupied, dirA, a)
	}

	a.exits[dirA] = path
	b.exits[dirB] = path

	p.notify(Change{Kind: PathConnected, Place: a, Other: b, Direction: dirA, OtherDirection: dirB})
	return nil
}

// RemovePath снимает путь с обоих концов.
// Возвращает ErrPathNotFound, если путь не подключён к этому месту.
func (p *Place) RemovePath(path *Path) error {
	if path == nil || !path.HasPlace(p) {
		return ErrPathNotFound
	}
	if p.exits[path.Direction(p)] != path && p.exits[path.OtherDirection(p)] != path {
		return ErrPathNotFound
	}

	for i, place := range path.places {
		if place.exits[path.dirs[i]] == path {
			delete(place.exits, path.dirs[i])
		}
	}

	p.notify(Change{
		Kind:           PathRemoved,
		Place:          path.places[0],
		Other:          path.places[1],
		Direction:      path.dirs[0],
		OtherDirection: path.dirs[1],
	})
	return nil
}

// ConnectChild делает other дочерним местом; множество родителей other
// обновляется вместе с множеством детей p.
func (p *Place) ConnectChild(other *Place) {
	if other == nil {
		return
	}
	if _, ok := p.children[other.id]; ok {
		return
	}
	p.children[other.id] = other
	other.parents[p.id] = p
	p.notify(Change{Kind: ChildConnected, Place: p, Other: other})
}

// RemoveChild разрывает связь родитель-ребёнок с обеих сторон
func (p *Place) RemoveChild(other *Place) error {
	if other == nil {
		return ErrNotChild
	}
	if _, ok := p.children[other.id]; !ok {
		return fmt.Errorf("%w: %s is not a child of %s", ErrNotChild, other, p)
	}
	delete(p.children, other.id)
	delete(other.parents, p.id)
	p.notify(Change{Kind: ChildRemoved, Place: p, Other: other})
	return nil
}

// HasChild проверяет наличие ребёнка
func (p *Place) HasChild(other *Place) bool {
	if other == nil {
		return false
	}
	_, ok := p.children[other.id]
	return ok
}

// HasParent проверяет наличие родителя
func (p *Place) HasParent(other *Place) bool {
	if other == nil {
		return false
	}
	_, ok := p.parents[other.id]
	return ok
}

// Children возвращает дочерние места, отсортированные по имени
func (p *Place) Children() []*Place {
	return sortedPlaces(p.children)
}

// Parents возвращает родительские места, отсортированные по имени
func (p *Place) Parents() []*Place {
	return sortedPlaces(p.parents)
}

func (p *Place) String() string {
	if p.layer == nil {
		return fmt.Sprintf("%q", p.Name)
	}
	return fmt.Sprintf("%q (%d: %d, %d)", p.Name, p.layer.id, p.pos.X, p.pos.Y)
}

func (p *Place) notify(c Change) {
	if p.layer != nil {
		p.layer.notify(c)
	}
}

func sortedPlaces(m map[PlaceID]*Place) []*Place {
	result := make([]*Place, 0, len(m))
	for _, pl := range m {
		result = append(result, pl)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].id < result[j].id
	})
	return result
}
