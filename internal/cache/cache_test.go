package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_, err := c.Get(ctx, "world")
	assert.True(t, IsCacheMiss(err))

	require.NoError(t, c.Set(ctx, "world", []byte("snapshot"), 0))
	got, err := c.Get(ctx, "world")
	require.NoError(t, err)
	assert.Equal(t, []byte("snapshot"), got)

	// возвращается копия
	got[0] = 'X'
	again, err := c.Get(ctx, "world")
	require.NoError(t, err)
	assert.Equal(t, []byte("snapshot"), again)

	require.NoError(t, c.Delete(ctx, "world"))
	_, err = c.Get(ctx, "world")
	assert.ErrorIs(t, err, ErrCacheMiss)

	m := c.Metrics()
	assert.Equal(t, int64(4), m.Requests)
	assert.Equal(t, int64(2), m.Hits)
	assert.Equal(t, int64(2), m.Misses)
	assert.InDelta(t, 0.5, m.HitRatio, 1e-9)
}

func TestMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestNATSInvalidator_HandleMessage(t *testing.T) {
	inv := newInvalidator(nil, "", "node-a")
	assert.Equal(t, DefaultInvalidationSubject, inv.subject)

	var got []string
	inv.handler = func(key string) error {
		got = append(got, key)
		if key == "broken" {
			return errors.New("boom")
		}
		return nil
	}

	send := func(key, node string) {
		data, err := json.Marshal(InvalidationMessage{Key: key, NodeID: node})
		require.NoError(t, err)
		inv.handleMessage(&nats.Msg{Subject: inv.subject, Data: data})
	}

	send("default", "node-b")
	send("own", "node-a")
	send("broken", "node-c")
	inv.handleMessage(&nats.Msg{Data: []byte("{not json")})

	assert.Equal(t, []string{"default", "broken"}, got)
	_, received, errs := inv.Stats()
	assert.Equal(t, int64(4), received)
	assert.Equal(t, int64(2), errs)
}

func TestNewInvalidator_GeneratesNodeID(t *testing.T) {
	a := newInvalidator(nil, "custom", "")
	b := newInvalidator(nil, "custom", "")
	assert.NotEmpty(t, a.NodeID())
	assert.NotEqual(t, a.NodeID(), b.NodeID())
	assert.Equal(t, "custom", a.subject)
}
