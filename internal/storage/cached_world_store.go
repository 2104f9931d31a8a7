package storage

import (
	"context"
	"time"

	"github.com/annel0/mudmap/internal/cache"
	"github.com/annel0/mudmap/internal/logging"
	"github.com/annel0/mudmap/internal/world"
)

// CachedWorldStore это сквозной кеш снимков перед основным хранилищем.
// Запись идёт в хранилище и в кеш; другие узлы получают инвалидацию.
type CachedWorldStore struct {
	store       WorldStore
	cache       cache.SnapshotCache
	invalidator cache.Invalidator
	ttl         time.Duration
	cancel      context.CancelFunc
}

// NewCachedWorldStore оборачивает store. invalidator может быть nil.
func NewCachedWorldStore(store WorldStore, c cache.SnapshotCache, invalidator cache.Invalidator, ttl time.Duration) (*CachedWorldStore, error) {
	cs := &CachedWorldStore{
		store:       store,
		cache:       c,
		invalidator: invalidator,
		ttl:         ttl,
	}
	if invalidator != nil {
		ctx, cancel := context.WithCancel(context.Background())
		cs.cancel = cancel
		err := invalidator.Subscribe(ctx, func(key string) error {
			logging.Debug("🧊 Снимок %q инвалидирован другим узлом", key)
			return c.Delete(context.Background(), key)
		})
		if err != nil {
			cancel()
			return nil, err
		}
	}
	return cs, nil
}

func (cs *CachedWorldStore) put(ctx context.Context, name string, w *world.World) {
	data, err := EncodeSnapshot(NewSnapshot(w))
	if err == nil {
		err = cs.cache.Set(ctx, name, data, cs.ttl)
	}
	if err != nil {
		logging.Warn("⚠️ Не удалось закешировать снимок %q: %v", name, err)
	}
}

func (cs *CachedWorldStore) invalidate(ctx context.Context, name string) {
	if cs.invalidator == nil {
		return
	}
	if err := cs.invalidator.Publish(ctx, name); err != nil {
		logging.Warn("⚠️ Не удалось разослать инвалидацию %q: %v", name, err)
	}
}

func (cs *CachedWorldStore) SaveWorld(ctx context.Context, name string, w *world.World) error {
	if err := cs.store.SaveWorld(ctx, name, w); err != nil {
		return err
	}
	cs.put(ctx, name, w)
	cs.invalidate(ctx, name)
	return nil
}

// LoadWorld читает снимок из кеша; при промахе или битом снимке идёт в хранилище
func (cs *CachedWorldStore) LoadWorld(ctx context.Context, name string) (*world.World, error) {
	data, err := cs.cache.Get(ctx, name)
	if err == nil {
		snap, derr := DecodeSnapshot(data)
		if derr == nil {
			if w, rerr := snap.Restore(); rerr == nil {
				return w, nil
			}
		}
		logging.Warn("⚠️ Снимок %q в кеше повреждён, читаем из хранилища", name)
		_ = cs.cache.Delete(ctx, name)
	} else if !cache.IsCacheMiss(err) {
		logging.Warn("⚠️ Кеш снимков недоступен: %v", err)
	}

	w, err := cs.store.LoadWorld(ctx, name)
	if err != nil {
		return nil, err
	}
	cs.put(ctx, name, w)
	return w, nil
}

func (cs *CachedWorldStore) DeleteWorld(ctx context.Context, name string) error {
	if err := cs.store.DeleteWorld(ctx, name); err != nil {
		return err
	}
	if err := cs.cache.Delete(ctx, name); err != nil {
		logging.Warn("⚠️ Не удалось удалить снимок %q из кеша: %v", name, err)
	}
	cs.invalidate(ctx, name)
	return nil
}

func (cs *CachedWorldStore) ListWorlds(ctx context.Context) ([]string, error) {
	return cs.store.ListWorlds(ctx)
}

// CacheMetrics возвращает счётчики кеша
func (cs *CachedWorldStore) CacheMetrics() cache.Metrics {
	return cs.cache.Metrics()
}

func (cs *CachedWorldStore) Close() error {
	if cs.cancel != nil {
		cs.cancel()
	}
	if cs.invalidator != nil {
		_ = cs.invalidator.Close()
	}
	_ = cs.cache.Close()
	return cs.store.Close()
}
