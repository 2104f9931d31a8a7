package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/annel0/mudmap/internal/logging"
	"github.com/annel0/mudmap/internal/world"
	"github.com/go-redis/redis/v8"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // Время жизни записей (0: без истечения)
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "mudmap:view:",
		TTL:       24 * time.Hour,
	}
}

// RedisViewpointRepo хранит историю обзора в Redis как JSON с TTL
type RedisViewpointRepo struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

type viewpointRecord struct {
	UserID    string                  `json:"user_id"`
	History   []world.WorldCoordinate `json:"history"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// NewRedisViewpointRepo подключается к Redis и проверяет соединение
func NewRedisViewpointRepo(config *RedisConfig) (*RedisViewpointRepo, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("🔴 Connected to Redis at %s", config.Addr)
	return NewRedisViewpointRepoWithClient(client, config.KeyPrefix, config.TTL), nil
}

// NewRedisViewpointRepoWithClient использует готовый клиент
func NewRedisViewpointRepoWithClient(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *RedisViewpointRepo {
	if keyPrefix == "" {
		keyPrefix = DefaultRedisConfig().KeyPrefix
	}
	return &RedisViewpointRepo{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (r *RedisViewpointRepo) key(userID string) string {
	return r.keyPrefix + userID
}

func (r *RedisViewpointRepo) marshal(userID string, history []world.WorldCoordinate) ([]byte, error) {
	data, err := json.Marshal(viewpointRecord{UserID: userID, History: history, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal viewpoints for %s: %w", userID, err)
	}
	return data, nil
}

func (r *RedisViewpointRepo) Save(ctx context.Context, userID string, history []world.WorldCoordinate) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	data, err := r.marshal(userID, history)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(userID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save viewpoints: %w", err)
	}
	return nil
}

func (r *RedisViewpointRepo) Load(ctx context.Context, userID string) ([]world.WorldCoordinate, bool, error) {
	if err := validateUserID(userID); err != nil {
		return nil, false, err
	}

	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("failed to get viewpoints: %w", err)
	}

	var rec viewpointRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal viewpoints: %w", err)
	}
	return rec.History, true, nil
}

func (r *RedisViewpointRepo) Delete(ctx context.Context, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	n, err := r.client.Del(ctx, r.key(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete viewpoints: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrViewpointNotFound, userID)
	}
	return nil
}

// BatchSave пишет все истории одним пайплайном
func (r *RedisViewpointRepo) BatchSave(ctx context.Context, histories map[string][]world.WorldCoordinate) error {
	if len(histories) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for userID, history := range histories {
		if err := validateUserID(userID); err != nil {
			return err
		}
		data, err := r.marshal(userID, history)
		if err != nil {
			logging.Warn("⚠️ %v", err)
			continue
		}
		pipe.Set(ctx, r.key(userID), data, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	return nil
}

func (r *RedisViewpointRepo) Close() error {
	return r.client.Close()
}
