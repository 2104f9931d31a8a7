package editor

import (
	"errors"
	"fmt"

	"github.com/annel0/mudmap/internal/world"
)

// ErrSelfChild возвращается при попытке сделать место собственным ребёнком
var ErrSelfChild = errors.New("place cannot be its own child")

// Suggestion описывает возможный путь к соседней клетке:
// у места и соседа свободны слоты Dir и NeighborDir, а пути между ними нет.
type Suggestion struct {
	Neighbor    *world.Place
	Dir         world.Direction
	NeighborDir world.Direction
}

// NeighborConnections предлагает пути от места под курсором к соседям в радиусе 1
func (s *Session) NeighborConnections() ([]Suggestion, error) {
	s.lock()
	defer s.unlock()
	place := s.selectedPlace()
	if place == nil {
		return nil, ErrNoSelection
	}
	return neighborConnections(place), nil
}

// NeighborConnectionsOf это NeighborConnections для места по идентификатору
func (s *Session) NeighborConnectionsOf(id world.PlaceID) ([]Suggestion, error) {
	s.lock()
	defer s.unlock()
	place, err := s.placeByID(id)
	if err != nil {
		return nil, err
	}
	return neighborConnections(place), nil
}

func neighborConnections(place *world.Place) []Suggestion {
	result := make([]Suggestion, 0)
	for _, neighbor := range place.Layer().Neighbors(place.X(), place.Y(), 1) {
		if len(place.PathsTo(neighbor)) > 0 {
			continue
		}
		dir, back := directionsBetween(place, neighbor)
		if place.Exit(dir) != nil || neighbor.Exit(back) != nil {
			continue
		}
		result = append(result, Suggestion{Neighbor: neighbor, Dir: dir, NeighborDir: back})
	}
	return result
}

// directionsBetween возвращает метку от a к соседу b и обратную ей
func directionsBetween(a, b *world.Place) (world.Direction, world.Direction) {
	var dir, back string
	switch {
	case b.Y() > a.Y():
		dir, back = "n", "s"
	case b.Y() < a.Y():
		dir, back = "s", "n"
	}
	switch {
	case b.X() > a.X():
		dir, back = dir+"e", back+"w"
	case b.X() < a.X():
		dir, back = dir+"w", back+"e"
	}
	return world.Direction(dir), world.Direction(back)
}

// CreateChildOnNewLayer создаёт место name на новом слое, делает его
// ребёнком места под курсором и переходит к нему.
func (s *Session) CreateChildOnNewLayer(name string) (*world.Place, error) {
	s.lock()
	defer s.unlock()
	parent := s.selectedPlace()
	if parent == nil {
		s.metrics.observe("create_child_layer", ErrNoSelection)
		return nil, ErrNoSelection
	}
	return s.createChildOnNewLayer(parent, name)
}

// CreateChildOnNewLayerOf это CreateChildOnNewLayer для родителя по идентификатору
func (s *Session) CreateChildOnNewLayerOf(parentID world.PlaceID, name string) (*world.Place, error) {
	s.lock()
	defer s.unlock()
	parent, err := s.placeByID(parentID)
	if err != nil {
		return nil, err
	}
	return s.createChildOnNewLayer(parent, name)
}

func (s *Session) createChildOnNewLayer(parent *world.Place, name string) (child *world.Place, err error) {
	defer func() { s.metrics.observe("create_child_layer", err) }()

	layer := s.world.NewLayer(name)
	child, err = s.world.PutPlace(layer.ID(), 0, 0, name)
	if err != nil {
		return nil, fmt.Errorf("create child on new layer: %w", err)
	}
	parent.ConnectChild(child)

	c, _ := child.Coordinate()
	s.history.Push(c)
	s.cursor = c
	s.report("Created %s on new map as child of %s", child.Name, parent.Name)
	return child, nil
}

// ConnectChild делает child ребёнком parent
func (s *Session) ConnectChild(parentID, childID world.PlaceID) (err error) {
	s.lock()
	defer s.unlock()
	defer func() { s.metrics.observe("connect_child", err) }()

	parent, child, err := s.placePair(parentID, childID)
	if err != nil {
		return err
	}
	if parent == child {
		return fmt.Errorf("%w: %s", ErrSelfChild, parent)
	}
	parent.ConnectChild(child)
	s.report("Connected %s as child of %s", child.Name, parent.Name)
	return nil
}

// RemoveChild разрывает связь parent → child
func (s *Session) RemoveChild(parentID, childID world.PlaceID) (err error) {
	s.lock()
	defer s.unlock()
	defer func() { s.metrics.observe("remove_child", err) }()

	parent, child, err := s.placePair(parentID, childID)
	if err != nil {
		return err
	}
	if err := parent.RemoveChild(child); err != nil {
		return err
	}
	s.report("Removed child %s from %s", child.Name, parent.Name)
	return nil
}

// RemovePath удаляет путь из слота dir места id
func (s *Session) RemovePath(id world.PlaceID, dir world.Direction) (err error) {
	s.lock()
	defer s.unlock()
	defer func() { s.metrics.observe("remove_path", err) }()

	place, err := s.placeByID(id)
	if err != nil {
		return err
	}
	path := place.Exit(dir)
	if path == nil {
		return fmt.Errorf("remove path %s of %s: %w", dir, place, world.ErrPathNotFound)
	}
	return place.RemovePath(path)
}

// RemovePlace удаляет место вместе с его путями и связями иерархии
func (s *Session) RemovePlace(id world.PlaceID) (err error) {
	s.lock()
	defer s.unlock()
	defer func() { s.metrics.observe("remove_place", err) }()

	place, err := s.placeByID(id)
	if err != nil {
		return err
	}
	s.group.Remove(place)
	if err := s.world.RemovePlace(place); err != nil {
		return err
	}
	s.report("Removed %s", place.Name)
	return nil
}

func (s *Session) placeByID(id world.PlaceID) (*world.Place, error) {
	place := s.world.PlaceByID(id)
	if place == nil {
		return nil, fmt.Errorf("%w: %s", world.ErrPlaceNotFound, id)
	}
	return place, nil
}

func (s *Session) placePair(a, b world.PlaceID) (*world.Place, *world.Place, error) {
	first, err := s.placeByID(a)
	if err != nil {
		return nil, nil, err
	}
	second, err := s.placeByID(b)
	if err != nil {
		return nil, nil, err
	}
	return first, second, nil
}
