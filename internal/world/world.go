package world

import (
	"fmt"
	"sort"
)

// World это корневой контейнер: слои, домашняя позиция и реестр областей.
// Синхронизации внутри нет: все мутации вызываются последовательно одним владельцем.
type World struct {
	Name string

	layers      map[LayerID]*Layer
	nextLayerID LayerID
	home        WorldCoordinate
	areas       map[string]*Area
	observer    Observer
}

// New создаёт пустой мир
func New(name string) *World {
	return &World{
		Name:        name,
		layers:      make(map[LayerID]*Layer),
		nextLayerID: 1,
		areas:       make(map[string]*Area),
	}
}

// SetObserver устанавливает получателя уведомлений об изменениях (nil: отключить)
func (w *World) SetObserver(o Observer) {
	w.observer = o
}

func (w *World) notify(c Change) {
	if w.observer != nil {
		w.observer.OnWorldChange(c)
	}
}

// NewLayer создаёт новый слой со следующим свободным идентификатором
func (w *World) NewLayer(name string) *Layer {
	for {
		if _, taken := w.layers[w.nextLayerID]; !taken {
			break
		}
		w.nextLayerID++
	}
	layer := NewLayer(w.nextLayerID, name)
	w.nextLayerID++
	w.attachLayer(layer)
	return layer
}

// AddLayer добавляет готовый слой с его собственным идентификатором
func (w *World) AddLayer(layer *Layer) error {
	if layer == nil {
		return fmt.Errorf("add nil layer: %w", ErrLayerNotFound)
	}
	if _, exists := w.layers[layer.id]; exists {
		return fmt.Errorf("%w: %d", ErrLayerExists, layer.id)
	}
	if layer.id >= w.nextLayerID {
		w.nextLayerID = layer.id + 1
	}
	w.attachLayer(layer)
	return nil
}

func (w *World) attachLayer(layer *Layer) {
	layer.world = w
	w.layers[layer.id] = layer
	w.notify(Change{Kind: LayerAdded, Layer: layer.id})
}

// Layer возвращает слой по идентификатору или nil
func (w *World) Layer(id LayerID) *Layer {
	return w.layers[id]
}

// Layers возвращает слои, упорядоченные по идентификатору
func (w *World) Layers() []*Layer {
	result := make([]*Layer, 0, len(w.layers))
	for _, l := range w.layers {
		result = append(result, l)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].id < result[j].id })
	return result
}

// PutPlace создаёт место с именем name в клетке (x, y) слоя layerID
func (w *World) PutPlace(layerID LayerID, x, y int, name string) (*Place, error) {
	layer := w.layers[layerID]
	if layer == nil {
		return nil, fmt.Errorf("%w: %d", ErrLayerNotFound, layerID)
	}
	place := NewPlace(name)
	if err := layer.Put(place, x, y); err != nil {
		return nil, err
	}
	return place, nil
}

// PutPlaceholder создаёт место-заглушку, резервируя клетку
func (w *World) PutPlaceholder(layerID LayerID, x, y int) (*Place, error) {
	return w.PutPlace(layerID, x, y, PlaceholderName)
}

// RemovePlace отключает все пути и связи иерархии места и снимает его со слоя
func (w *World) RemovePlace(place *Place) error {
	if place == nil || place.layer == nil || place.layer.world != w {
		return ErrPlaceNotFound
	}

	for _, path := range place.Paths() {
		if err := place.RemovePath(path); err != nil {
			return fmt.Errorf("remove path %s: %w", path, err)
		}
	}
	for _, child := range place.Children() {
		if err := place.RemoveChild(child); err != nil {
			return err
		}
	}
	for _, parent := range place.Parents() {
		if err := parent.RemoveChild(place); err != nil {
			return err
		}
	}

	return place.layer.Remove(place)
}

// PlaceByID ищет место по идентификатору на всех слоях
func (w *World) PlaceByID(id PlaceID) *Place {
	for _, layer := range w.layers {
		for _, place := range layer.places {
			if place.id == id {
				return place
			}
		}
	}
	return nil
}

// PlaceCount возвращает общее количество мест во всех слоях
func (w *World) PlaceCount() int {
	n := 0
	for _, layer := range w.layers {
		n += len(layer.places)
	}
	return n
}

// Home возвращает домашнюю позицию (точку обзора по умолчанию)
func (w *World) Home() WorldCoordinate {
	return w.home
}

// SetHome устанавливает домашнюю позицию
func (w *World) SetHome(c WorldCoordinate) {
	w.home = c
	w.notify(Change{Kind: HomeChanged, Layer: c.Layer, Home: c})
}

// AddArea регистрирует область. Имена уникальны без учёта регистра.
func (w *World) AddArea(area *Area) error {
	key := areaKey(area.Name)
	if _, exists := w.areas[key]; exists {
		return fmt.Errorf("%w: %q", ErrAreaExists, area.Name)
	}
	w.areas[key] = area
	w.notify(Change{Kind: AreaAdded, Area: area})
	return nil
}

// Area ищет область по имени без учёта регистра
func (w *World) Area(name string) *Area {
	return w.areas[areaKey(name)]
}

// Areas возвращает области, упорядоченные по имени
func (w *World) Areas() []*Area {
	result := make([]*Area, 0, len(w.areas))
	for _, a := range w.areas {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return CompareAreas(result[i], result[j]) < 0 })
	return result
}

// RemoveArea удаляет область из реестра и снимает её со всех мест
func (w *World) RemoveArea(area *Area) {
	if area == nil {
		return
	}
	key := areaKey(area.Name)
	if w.areas[key] != area {
		return
	}
	delete(w.areas, key)

	for _, layer := range w.layers {
		for _, place := range layer.places {
			if place.Area == area {
				place.Area = nil
			}
		}
	}
	w.notify(Change{Kind: AreaRemoved, Area: area})
}
