package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// SnapshotCache это горячий кеш сжатых снимков мира.
// Ключ это имя мира, значение хранит байты снимка.
//
// Использование:
//
//	c := cache.NewMemoryCache()
//	data, err := c.Get(ctx, "default")
//	err = c.Set(ctx, "default", data, 10*time.Minute)
type SnapshotCache interface {
	// Get возвращает ErrCacheMiss, если ключа нет или он истёк.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set сохраняет значение; ttl = 0: без истечения.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Metrics() Metrics
	Close() error
}

// Invalidator рассылает инвалидацию ключей между узлами mapd
type Invalidator interface {
	Publish(ctx context.Context, key string) error
	Subscribe(ctx context.Context, handler InvalidationHandler) error
	Close() error
}

// InvalidationHandler обрабатывает ключ, инвалидированный другим узлом
type InvalidationHandler func(key string) error

// ErrCacheMiss: ключ не найден в кеше
var ErrCacheMiss = errors.New("cache miss")

// IsCacheMiss проверяет, является ли ошибка промахом кеша
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// Metrics это счётчики кеша
type Metrics struct {
	Requests int64   `json:"requests"`
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	Errors   int64   `json:"errors"`
	HitRatio float64 `json:"hit_ratio"`
}

// counters это общие atomic-счётчики реализаций
type counters struct {
	requests int64
	hits     int64
	misses   int64
	errors   int64
}

func (c *counters) hit()  { atomic.AddInt64(&c.requests, 1); atomic.AddInt64(&c.hits, 1) }
func (c *counters) miss() { atomic.AddInt64(&c.requests, 1); atomic.AddInt64(&c.misses, 1) }
func (c *counters) fail() { atomic.AddInt64(&c.requests, 1); atomic.AddInt64(&c.errors, 1) }

func (c *counters) snapshot() Metrics {
	m := Metrics{
		Requests: atomic.LoadInt64(&c.requests),
		Hits:     atomic.LoadInt64(&c.hits),
		Misses:   atomic.LoadInt64(&c.misses),
		Errors:   atomic.LoadInt64(&c.errors),
	}
	if m.Requests > 0 {
		m.HitRatio = float64(m.Hits) / float64(m.Requests)
	}
	return m
}
