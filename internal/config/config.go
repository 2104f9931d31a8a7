package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации mapd/mapctl.
// Отсутствующие секции получают значения по умолчанию (см. Default).
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Storage    StorageConfig    `yaml:"storage"`
	Viewpoints ViewpointsConfig `yaml:"viewpoints"`
	EventBus   EventBusConfig   `yaml:"eventbus"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Editor     EditorConfig     `yaml:"editor"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Auth       AuthConfig       `yaml:"auth"`
}

type WorldConfig struct {
	Name string `yaml:"name"`
}

// StorageConfig это хранилище снимков мира: badger | mongo | memory
type StorageConfig struct {
	Backend  string      `yaml:"backend"`
	Path     string      `yaml:"path"`
	MongoURI string      `yaml:"mongo_uri"`
	MongoDB  string      `yaml:"mongo_db"`
	Cache    CacheConfig `yaml:"cache"`
}

// CacheConfig это кеш снимков перед хранилищем: "" (выключен) | memory | redis.
// NATSURL включает рассылку инвалидаций между узлами.
type CacheConfig struct {
	Backend    string `yaml:"backend"`
	RedisAddr  string `yaml:"redis_addr"`
	RedisDB    int    `yaml:"redis_db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
	NATSURL    string `yaml:"nats_url"`
}

// TTL возвращает время жизни снимка в кеше
func (c *CacheConfig) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

// ViewpointsConfig это хранилище истории точек обзора: memory | redis | maria
type ViewpointsConfig struct {
	Backend    string `yaml:"backend"`
	RedisAddr  string `yaml:"redis_addr"`
	RedisDB    int    `yaml:"redis_db"`
	TTLMinutes int    `yaml:"ttl_minutes"`
	MariaDSN   string `yaml:"maria_dsn"`
}

// EventBusConfig это шина событий; BatchSize > 0 включает ленту изменений
type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	NodeID    string `yaml:"node_id"`
	BatchSize int    `yaml:"batch_size"`
	FlushMs   int    `yaml:"flush_ms"`
	Compress  bool   `yaml:"compress"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// TelemetryConfig это экспорт трасс OpenTelemetry (OTLP/HTTP)
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// AuthConfig это JWT-защита изменяющих запросов REST API.
// Secret это base64 (>= 32 байт); пустой генерируется при старте.
type AuthConfig struct {
	Enabled         bool         `yaml:"enabled"`
	Secret          string       `yaml:"secret"`
	TokenTTLMinutes int          `yaml:"token_ttl_minutes"`
	Users           []UserConfig `yaml:"users"`
}

// UserConfig это учётная запись из конфигурации; PasswordHash в формате bcrypt
type UserConfig struct {
	Name         string `yaml:"name"`
	PasswordHash string `yaml:"password_hash"`
	Role         string `yaml:"role"`
}

// TokenTTL возвращает срок жизни токена (по умолчанию сутки)
func (a *AuthConfig) TokenTTL() time.Duration {
	if a.TokenTTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type EditorConfig struct {
	NeighborRadius int `yaml:"neighbor_radius"`
	HistoryLimit   int `yaml:"history_limit"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World:      WorldConfig{Name: "default"},
		Storage:    StorageConfig{Backend: "badger", Path: "data/worlds", MongoDB: "mudmap"},
		Viewpoints: ViewpointsConfig{Backend: "memory", TTLMinutes: 24 * 60},
		EventBus:   EventBusConfig{Stream: "MAPEVENTS", Retention: 24},
		Log:        LogConfig{Level: "info"},
		Editor:     EditorConfig{NeighborRadius: 1, HistoryLimit: 100},
	}
}

// ViewpointTTL возвращает время жизни истории в redis
func (v *ViewpointsConfig) ViewpointTTL() time.Duration {
	return time.Duration(v.TTLMinutes) * time.Minute
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "MUDMAP_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "MUDMAP_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}
	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", берётся ENV MUDMAP_CONFIG; без файла возвращается Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("MUDMAP_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Editor.NeighborRadius <= 0 {
		cfg.Editor.NeighborRadius = 1
	}
	return cfg, nil
}
