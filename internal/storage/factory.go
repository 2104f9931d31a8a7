package storage

import (
	"fmt"

	"github.com/annel0/mudmap/internal/cache"
	"github.com/annel0/mudmap/internal/config"
	"github.com/annel0/mudmap/internal/logging"
)

// OpenWorldStore создаёт хранилище миров по секции storage конфигурации
// и при необходимости оборачивает его кешем снимков
func OpenWorldStore(cfg config.StorageConfig) (WorldStore, error) {
	store, err := openBaseStore(cfg)
	if err != nil || cfg.Cache.Backend == "" {
		return store, err
	}

	snapshots, err := openSnapshotCache(cfg.Cache)
	if err != nil {
		logging.GetStorageLogger().Warn("⚠️ Кеш снимков отключён: %v", err)
		return store, nil
	}

	var invalidator cache.Invalidator
	if cfg.Cache.NATSURL != "" {
		inv, err := cache.NewNATSInvalidator(cache.InvalidatorConfig{NATSURL: cfg.Cache.NATSURL})
		if err != nil {
			logging.GetStorageLogger().Warn("⚠️ Инвалидация кеша между узлами недоступна: %v", err)
		} else {
			invalidator = inv
		}
	}

	cached, err := NewCachedWorldStore(store, snapshots, invalidator, cfg.Cache.TTL())
	if err != nil {
		_ = snapshots.Close()
		if invalidator != nil {
			_ = invalidator.Close()
		}
		logging.GetStorageLogger().Warn("⚠️ Кеш снимков отключён: %v", err)
		return store, nil
	}
	return cached, nil
}

func openSnapshotCache(cfg config.CacheConfig) (cache.SnapshotCache, error) {
	switch cfg.Backend {
	case "memory":
		return cache.NewMemoryCache(), nil
	case "redis":
		return cache.NewRedisCache(cache.RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB, MaxTTL: cfg.TTL()})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func openBaseStore(cfg config.StorageConfig) (WorldStore, error) {
	switch cfg.Backend {
	case "", "badger":
		store, err := NewBadgerWorldStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "mongo":
		store, err := NewMongoWorldStore(MongoConfig{URI: cfg.MongoURI, Database: cfg.MongoDB})
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		return NewMemoryWorldStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// OpenViewpointRepo создаёт хранилище истории обзора.
// Недоступные Redis/MariaDB заменяются памятью с предупреждением.
func OpenViewpointRepo(cfg config.ViewpointsConfig) ViewpointRepo {
	switch cfg.Backend {
	case "redis":
		repo, err := NewRedisViewpointRepo(&RedisConfig{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
			TTL:  cfg.ViewpointTTL(),
		})
		if err == nil {
			return repo
		}
		logging.GetStorageLogger().Warn("⚠️ Redis недоступен, история обзора хранится в памяти: %v", err)
	case "maria", "mysql":
		repo, err := NewMariaViewpointRepo(cfg.MariaDSN)
		if err == nil {
			return repo
		}
		logging.GetStorageLogger().Warn("⚠️ MariaDB недоступна, история обзора хранится в памяти: %v", err)
	}
	return NewMemoryViewpointRepo()
}
