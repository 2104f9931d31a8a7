package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/annel0/mudmap/internal/logging"
	"github.com/annel0/mudmap/internal/world"
	"github.com/dgraph-io/badger/v3"
)

const worldKeyPrefix = "world:"

// BadgerWorldStore хранит снимки миров в BadgerDB под ключами world:<name>
type BadgerWorldStore struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerWorldStore открывает (или создаёт) базу в dataPath/worlds
func NewBadgerWorldStore(dataPath string) (*BadgerWorldStore, error) {
	dbPath := filepath.Join(dataPath, "worlds")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	logging.Info("💾 BadgerDB открыта: %s", dbPath)
	return &BadgerWorldStore{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
	}, nil
}

func worldKey(name string) []byte {
	return []byte(worldKeyPrefix + name)
}

// Close закрывает хранилище
func (s *BadgerWorldStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}
	s.isReady = false
	return s.db.Close()
}

func (s *BadgerWorldStore) ready() error {
	if !s.isReady {
		return fmt.Errorf("хранилище не готово")
	}
	return nil
}

// SaveWorld сохраняет сжатый снимок мира
func (s *BadgerWorldStore) SaveWorld(ctx context.Context, name string, w *world.World) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	snap := NewSnapshot(w)
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(worldKey(name), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	logging.Debug("💾 Мир %q сохранён: %d мест, %d путей, %d байт", name, snap.PlaceCount(), len(snap.Paths), len(data))
	return nil
}

// LoadWorld читает снимок и восстанавливает мир
func (s *BadgerWorldStore) LoadWorld(ctx context.Context, name string) (*world.World, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(worldKey(name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrWorldNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	snap, err := DecodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	return snap.Restore()
}

// DeleteWorld удаляет снимок
func (s *BadgerWorldStore) DeleteWorld(ctx context.Context, name string) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(worldKey(name)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %q", ErrWorldNotFound, name)
			}
			return err
		}
		return txn.Delete(worldKey(name))
	})
}

// ListWorlds перечисляет имена сохранённых миров в лексикографическом порядке
func (s *BadgerWorldStore) ListWorlds(ctx context.Context) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	var names []string
	prefix := []byte(worldKeyPrefix)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().KeyCopy(nil))
			names = append(names, strings.TrimPrefix(key, worldKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения списка миров: %w", err)
	}
	return names, nil
}
