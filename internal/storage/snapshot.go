package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/annel0/mudmap/internal/world"
)

// SnapshotVersion это версия формата снимка
const SnapshotVersion = 1

// ErrCorruptSnapshot: снимок ссылается на несуществующие места/слои или нарушает инварианты мира
var ErrCorruptSnapshot = errors.New("corrupt world snapshot")

// Snapshot это сериализуемое представление мира.
// Места ссылаются друг на друга только через PlaceID.
type Snapshot struct {
	Version  int                   `json:"version" bson:"version"`
	Name     string                `json:"name" bson:"name"`
	Home     world.WorldCoordinate `json:"home" bson:"home"`
	Areas    []AreaRecord          `json:"areas,omitempty" bson:"areas,omitempty"`
	Layers   []LayerRecord         `json:"layers" bson:"layers"`
	Paths    []PathRecord          `json:"paths,omitempty" bson:"paths,omitempty"`
	Children []ChildRecord         `json:"children,omitempty" bson:"children,omitempty"`
	SavedAt  time.Time             `json:"saved_at" bson:"saved_at"`
}

type AreaRecord struct {
	Name  string `json:"name" bson:"name"`
	Color string `json:"color" bson:"color"` // #rrggbbaa; старые снимки хранят #rrggbb
}

type LayerRecord struct {
	ID     world.LayerID `json:"id" bson:"id"`
	Name   string        `json:"name" bson:"name"`
	Places []PlaceRecord `json:"places,omitempty" bson:"places,omitempty"`
}

type PlaceRecord struct {
	ID      world.PlaceID `json:"id" bson:"id"`
	Name    string        `json:"name" bson:"name"`
	Comment string        `json:"comment,omitempty" bson:"comment,omitempty"`
	Area    string        `json:"area,omitempty" bson:"area,omitempty"`
	X       int           `json:"x" bson:"x"`
	Y       int           `json:"y" bson:"y"`
}

// PathRecord это путь как пара концов (место, метка)
type PathRecord struct {
	A    world.PlaceID   `json:"a" bson:"a"`
	DirA world.Direction `json:"dir_a" bson:"dir_a"`
	B    world.PlaceID   `json:"b" bson:"b"`
	DirB world.Direction `json:"dir_b" bson:"dir_b"`
}

type ChildRecord struct {
	Parent world.PlaceID `json:"parent" bson:"parent"`
	Child  world.PlaceID `json:"child" bson:"child"`
}

// NewSnapshot снимает состояние мира. Порядок записей детерминирован.
func NewSnapshot(w *world.World) *Snapshot {
	snap := &Snapshot{
		Version: SnapshotVersion,
		Name:    w.Name,
		Home:    w.Home(),
		SavedAt: time.Now().UTC(),
	}

	for _, area := range w.Areas() {
		snap.Areas = append(snap.Areas, AreaRecord{Name: area.Name, Color: area.RGBAHex()})
	}

	seen := make(map[*world.Path]struct{})
	for _, layer := range w.Layers() {
		rec := LayerRecord{ID: layer.ID(), Name: layer.Name}
		for _, place := range layer.Places() {
			pr := PlaceRecord{
				ID:      place.ID(),
				Name:    place.Name,
				Comment: place.Comment,
				X:       place.X(),
				Y:       place.Y(),
			}
			if place.Area != nil {
				pr.Area = place.Area.Name
			}
			rec.Places = append(rec.Places, pr)

			for _, path := range place.Paths() {
				if _, dup := seen[path]; dup {
					continue
				}
				seen[path] = struct{}{}
				ends := path.Places()
				dirs := path.Directions()
				snap.Paths = append(snap.Paths, PathRecord{
					A: ends[0].ID(), DirA: dirs[0],
					B: ends[1].ID(), DirB: dirs[1],
				})
			}
			for _, child := range place.Children() {
				snap.Children = append(snap.Children, ChildRecord{Parent: place.ID(), Child: child.ID()})
			}
		}
		snap.Layers = append(snap.Layers, rec)
	}
	return snap
}

// PlaceCount возвращает количество мест в снимке
func (s *Snapshot) PlaceCount() int {
	n := 0
	for _, l := range s.Layers {
		n += len(l.Places)
	}
	return n
}

// Restore строит мир из снимка
func (s *Snapshot) Restore() (*world.World, error) {
	w := world.New(s.Name)

	for _, ar := range s.Areas {
		area := world.NewArea(ar.Name)
		if ar.Color != "" {
			c, err := world.ParseColor(ar.Color)
			if err != nil {
				return nil, fmt.Errorf("%w: area %q: %v", ErrCorruptSnapshot, ar.Name, err)
			}
			area.Color = c
		}
		if err := w.AddArea(area); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
	}

	places := make(map[world.PlaceID]*world.Place, s.PlaceCount())
	for _, lr := range s.Layers {
		layer := world.NewLayer(lr.ID, lr.Name)
		if err := w.AddLayer(layer); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		for _, pr := range lr.Places {
			if _, dup := places[pr.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate place id %s", ErrCorruptSnapshot, pr.ID)
			}
			place := world.NewPlaceWithID(pr.ID, pr.Name)
			place.Comment = pr.Comment
			if pr.Area != "" {
				place.Area = w.Area(pr.Area)
				if place.Area == nil {
					return nil, fmt.Errorf("%w: place %s references unknown area %q", ErrCorruptSnapshot, pr.ID, pr.Area)
				}
			}
			if err := layer.Put(place, pr.X, pr.Y); err != nil {
				return nil, fmt.Errorf("%w: place %s: %v", ErrCorruptSnapshot, pr.ID, err)
			}
			places[pr.ID] = place
		}
	}

	for _, p := range s.Paths {
		a, b := places[p.A], places[p.B]
		if a == nil || b == nil {
			return nil, fmt.Errorf("%w: path %s-%s references unknown place", ErrCorruptSnapshot, p.A, p.B)
		}
		if err := a.ConnectPath(world.NewPath(a, p.DirA, b, p.DirB)); err != nil {
			return nil, fmt.Errorf("%w: path %s-%s: %v", ErrCorruptSnapshot, p.A, p.B, err)
		}
	}

	for _, c := range s.Children {
		parent, child := places[c.Parent], places[c.Child]
		if parent == nil || child == nil {
			return nil, fmt.Errorf("%w: child link %s-%s references unknown place", ErrCorruptSnapshot, c.Parent, c.Child)
		}
		parent.ConnectChild(child)
	}

	w.SetHome(s.Home)
	return w, nil
}
