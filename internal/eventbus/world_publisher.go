package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/annel0/mudmap/internal/logging"
	"github.com/annel0/mudmap/internal/world"
	"github.com/google/uuid"
)

// WorldEventPrefix это префикс типов событий изменения мира
const WorldEventPrefix = "world."

// WorldChange это полезная нагрузка событий world.*
type WorldChange struct {
	World          string                 `json:"world"`
	Kind           string                 `json:"kind"`
	Layer          world.LayerID          `json:"layer,omitempty"`
	PlaceID        world.PlaceID          `json:"place_id,omitempty"`
	PlaceName      string                 `json:"place_name,omitempty"`
	OtherID        world.PlaceID          `json:"other_id,omitempty"`
	X              int                    `json:"x"`
	Y              int                    `json:"y"`
	FromX          int                    `json:"from_x,omitempty"`
	FromY          int                    `json:"from_y,omitempty"`
	Direction      world.Direction        `json:"direction,omitempty"`
	OtherDirection world.Direction        `json:"other_direction,omitempty"`
	Area           string                 `json:"area,omitempty"`
	Home           *world.WorldCoordinate `json:"home,omitempty"`
}

// WorldPublisher превращает изменения мира в события шины
type WorldPublisher struct {
	bus       EventBus
	source    string
	worldName string
	priority  int
	timeout   time.Duration
}

// NewWorldPublisher создаёт наблюдателя мира worldName, публикующего в bus
func NewWorldPublisher(bus EventBus, source, worldName string) *WorldPublisher {
	return &WorldPublisher{
		bus:       bus,
		source:    source,
		worldName: worldName,
		priority:  5,
		timeout:   2 * time.Second,
	}
}

// OnWorldChange реализует world.Observer. Ошибки публикации только логируются.
func (p *WorldPublisher) OnWorldChange(c world.Change) {
	ev, err := p.Envelope(c)
	if err != nil {
		logging.Error("❌ Не удалось сериализовать изменение %s: %v", c.Kind, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.bus.Publish(ctx, ev); err != nil {
		logging.Warn("⚠️ Событие %s не опубликовано: %v", ev.EventType, err)
	}
}

// Envelope строит конверт события для изменения c
func (p *WorldPublisher) Envelope(c world.Change) (*Envelope, error) {
	payload, err := json.Marshal(p.payload(c))
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    p.source,
		EventType: WorldEventPrefix + c.Kind.String(),
		Version:   1,
		Priority:  p.priority,
		Payload:   payload,
		Metadata:  map[string]string{"world": p.worldName},
	}, nil
}

func (p *WorldPublisher) payload(c world.Change) WorldChange {
	wc := WorldChange{
		World:          p.worldName,
		Kind:           c.Kind.String(),
		Layer:          c.Layer,
		X:              c.Position.X,
		Y:              c.Position.Y,
		Direction:      c.Direction,
		OtherDirection: c.OtherDirection,
	}
	if c.Place != nil {
		wc.PlaceID = c.Place.ID()
		wc.PlaceName = c.Place.Name
	}
	if c.Other != nil {
		wc.OtherID = c.Other.ID()
	}
	if c.Kind == world.PlaceMoved {
		wc.FromX, wc.FromY = c.From.X, c.From.Y
	}
	if c.Area != nil {
		wc.Area = c.Area.Name
	}
	if c.Kind == world.HomeChanged {
		home := c.Home
		wc.Home = &home
	}
	return wc
}
