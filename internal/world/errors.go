package world

import "errors"

var (
	// ErrPlaceNotFound: место не проиндексировано на слое по своей координате
	ErrPlaceNotFound = errors.New("place not found")
	// ErrPathNotFound: путь не подключён к месту, на котором вызвана операция
	ErrPathNotFound = errors.New("path not found")
	// ErrSlotOccupied: слот направления уже занят на одном из концов пути
	ErrSlotOccupied = errors.New("direction slot occupied")
	// ErrPositionOccupied: клетка слоя уже занята другим местом
	ErrPositionOccupied = errors.New("position occupied")
	ErrLayerNotFound    = errors.New("layer not found")
	ErrLayerExists      = errors.New("layer already exists")
	ErrAreaExists       = errors.New("area already exists")
	ErrNotChild         = errors.New("place is not a child")
	ErrForeignPath      = errors.New("place is not an endpoint of the path")
	ErrInvalidDirection = errors.New("invalid direction")
)
