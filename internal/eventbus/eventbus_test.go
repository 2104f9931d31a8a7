package eventbus

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/annel0/mudmap/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu     sync.Mutex
	events []*Envelope
}

func (c *collector) handle(ctx context.Context, ev *Envelope) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *collector) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.EventType
	}
	return out
}

func TestMemoryBus_DeliversInOrderWithFilter(t *testing.T) {
	bus := NewMemoryBus(16)
	all := &collector{}
	only := &collector{}

	_, err := bus.Subscribe(context.Background(), Filter{}, all.handle)
	require.NoError(t, err)
	_, err = bus.Subscribe(context.Background(), Filter{Types: []string{"b"}}, only.handle)
	require.NoError(t, err)

	for _, typ := range []string{"a", "b", "c", "b"} {
		require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: typ, Priority: 5}))
	}
	require.NoError(t, bus.Close())

	assert.Equal(t, []string{"a", "b", "c", "b"}, all.types())
	assert.Equal(t, []string{"b", "b"}, only.types())

	stats := bus.Metrics()
	assert.Equal(t, uint64(4), stats.Published)
	assert.Equal(t, uint64(6), stats.Consumed)

	assert.ErrorIs(t, bus.Publish(context.Background(), &Envelope{}), ErrClosed)
	require.NoError(t, bus.Close())
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus(4)
	c := &collector{}
	sub, err := bus.Subscribe(context.Background(), Filter{}, c.handle)
	require.NoError(t, err)
	sub.Unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "x", Priority: 9}))
	require.NoError(t, bus.Close())
	assert.Empty(t, c.types())
}

func TestWorldPublisher_PublishesChanges(t *testing.T) {
	bus := NewMemoryBus(64)
	c := &collector{}
	_, err := bus.Subscribe(context.Background(), Filter{}, c.handle)
	require.NoError(t, err)

	w := world.New("midgaard")
	w.SetObserver(NewWorldPublisher(bus, "test", w.Name))

	layer := w.NewLayer("surface")
	a, err := w.PutPlace(layer.ID(), 0, 0, "a")
	require.NoError(t, err)
	b, err := w.PutPlace(layer.ID(), 1, 0, "b")
	require.NoError(t, err)
	require.NoError(t, a.ConnectPath(world.NewPath(a, world.East, b, world.West)))
	require.NoError(t, layer.Move(b, 2, 0))
	require.NoError(t, bus.Close())

	assert.Equal(t, []string{
		"world.layer_added",
		"world.place_added",
		"world.place_added",
		"world.path_connected",
		"world.place_moved",
	}, c.types())

	c.mu.Lock()
	moved := c.events[4]
	c.mu.Unlock()
	assert.NotEmpty(t, moved.ID)
	assert.Equal(t, "test", moved.Source)
	assert.Equal(t, "midgaard", moved.Metadata["world"])

	var payload WorldChange
	require.NoError(t, json.Unmarshal(moved.Payload, &payload))
	assert.Equal(t, b.ID(), payload.PlaceID)
	assert.Equal(t, 2, payload.X)
	assert.Equal(t, 1, payload.FromX)
	assert.Equal(t, layer.ID(), payload.Layer)
}

func TestWorldPublisher_HomePayload(t *testing.T) {
	p := NewWorldPublisher(NewMemoryBus(1), "test", "w")
	home := world.NewWorldCoordinate(3, 1.5, 2)
	ev, err := p.Envelope(world.Change{Kind: world.HomeChanged, Layer: 3, Home: home})
	require.NoError(t, err)
	assert.Equal(t, "world.home_changed", ev.EventType)

	var payload WorldChange
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	require.NotNil(t, payload.Home)
	assert.Equal(t, home, *payload.Home)
}

func TestMetricsExporter_Collect(t *testing.T) {
	bus := NewMemoryBus(8)
	reg := prometheus.NewRegistry()
	m := NewMetricsExporter(bus, reg)

	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "x"}))
	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: "y"}))
	require.NoError(t, bus.Close())

	prev := m.collect(Stats{})
	assert.Equal(t, 2.0, testutil.ToFloat64(m.published))
	m.collect(prev)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.published), "повторный сбор не удваивает счётчик")

	m.interval = 10 * time.Millisecond
	m.Start()
	m.Stop()
}

func TestGlobalPublish(t *testing.T) {
	Init(nil)
	assert.NoError(t, Publish(context.Background(), &Envelope{}))

	bus := NewMemoryBus(1)
	Init(bus)
	defer Init(nil)
	assert.Same(t, bus, Global())
	require.NoError(t, Publish(context.Background(), &Envelope{EventType: "x"}))
	assert.Equal(t, uint64(1), bus.Metrics().Published)
}

func TestStreamName(t *testing.T) {
	assert.Equal(t, "MAP_EVENTS", streamName("map.events"))
	assert.Equal(t, "mapevents.world.place_added", Subject("world.place_added"))
}
