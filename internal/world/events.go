package world

import (
	"github.com/annel0/mudmap/internal/vec"
)

// ChangeKind определяет тип изменения мира
type ChangeKind uint8

const (
	PlaceAdded     ChangeKind = iota + 1 // Место размещено на слое
	PlaceRemoved                         // Место снято со слоя
	PlaceMoved                           // Место перенесено внутри слоя
	PathConnected                        // Подключён путь
	PathRemoved                          // Путь удалён
	ChildConnected                       // Добавлена связь родитель-ребёнок
	ChildRemoved                         // Связь родитель-ребёнок удалена
	LayerAdded                           // Создан слой
	HomeChanged                          // Изменена домашняя позиция
	AreaAdded                            // Зарегистрирована область
	AreaRemoved                          // Область удалена
)

// String возвращает имя изменения (используется как тип события шины)
func (k ChangeKind) String() string {
	switch k {
	case PlaceAdded:
		return "place_added"
	case PlaceRemoved:
		return "place_removed"
	case PlaceMoved:
		return "place_moved"
	case PathConnected:
		return "path_connected"
	case PathRemoved:
		return "path_removed"
	case ChildConnected:
		return "child_connected"
	case ChildRemoved:
		return "child_removed"
	case LayerAdded:
		return "layer_added"
	case HomeChanged:
		return "home_changed"
	case AreaAdded:
		return "area_added"
	case AreaRemoved:
		return "area_removed"
	default:
		return "unknown"
	}
}

// Change описывает одно изменение мира.
// Заполнены только поля, относящиеся к Kind.
type Change struct {
	Kind           ChangeKind
	Layer          LayerID
	Place          *Place
	Other          *Place
	Position       vec.Vec2
	From           vec.Vec2
	Direction      Direction
	OtherDirection Direction
	Area           *Area
	Home           WorldCoordinate
}

// Observer получает уведомления об изменениях мира.
// Вызывается синхронно из мутирующей операции.
type Observer interface {
	OnWorldChange(c Change)
}

// ObserverFunc адаптирует функцию к Observer
type ObserverFunc func(c Change)

// OnWorldChange вызывает f(c)
func (f ObserverFunc) OnWorldChange(c Change) {
	f(c)
}

// MultiObserver рассылает изменение нескольким наблюдателям по порядку
type MultiObserver []Observer

// OnWorldChange уведомляет всех наблюдателей
func (m MultiObserver) OnWorldChange(c Change) {
	for _, o := range m {
		if o != nil {
			o.OnWorldChange(c)
		}
	}
}
