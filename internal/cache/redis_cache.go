package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/mudmap/internal/logging"
	"github.com/go-redis/redis/v8"
)

// RedisConfig содержит настройки Redis кеша снимков
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	MaxTTL    time.Duration
}

// RedisCache это общий для всех узлов кеш снимков в Redis
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	maxTTL time.Duration
	counters
}

// NewRedisCache подключается к Redis и проверяет соединение
func NewRedisCache(config RedisConfig) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("🧊 Redis кеш снимков подключён: %s", config.Addr)
	return NewRedisCacheWithClient(rdb, config.KeyPrefix, config.MaxTTL), nil
}

// NewRedisCacheWithClient оборачивает готовый клиент
func NewRedisCacheWithClient(client redis.UniversalClient, prefix string, maxTTL time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "mudmap:snapshot:"
	}
	if maxTTL <= 0 {
		maxTTL = time.Hour
	}
	return &RedisCache{client: client, prefix: prefix, maxTTL: maxTTL}
}

func (r *RedisCache) key(k string) string {
	return r.prefix + k
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	switch {
	case err == nil:
		r.hit()
		return val, nil
	case errors.Is(err, redis.Nil):
		r.miss()
		return nil, ErrCacheMiss
	default:
		r.fail()
		logging.Error("Redis Get error for key %s: %v", key, err)
		return nil, fmt.Errorf("redis get: %w", err)
	}
}

// Set ограничивает ttl сверху значением maxTTL
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 || ttl > r.maxTTL {
		ttl = r.maxTTL
	}
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *RedisCache) Metrics() Metrics {
	return r.snapshot()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
