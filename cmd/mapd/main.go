package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/mudmap/internal/api"
	"github.com/annel0/mudmap/internal/auth"
	"github.com/annel0/mudmap/internal/changefeed"
	"github.com/annel0/mudmap/internal/config"
	"github.com/annel0/mudmap/internal/editor"
	"github.com/annel0/mudmap/internal/eventbus"
	"github.com/annel0/mudmap/internal/logging"
	"github.com/annel0/mudmap/internal/observability"
	"github.com/annel0/mudmap/internal/storage"
	"github.com/annel0/mudmap/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML-конфигурации (по умолчанию $MUDMAP_CONFIG)")
	flag.Parse()

	if err := logging.InitDefaultLogger("mapd"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if level, err := logging.ParseLevel(cfg.Log.Level); err == nil {
		logging.SetDefaultLevel(level)
	} else {
		logging.Warn("⚠️ Неизвестный уровень логирования %q, используется INFO", cfg.Log.Level)
	}

	logging.Info("🗺️ Запуск mudmap, мир %q", cfg.World.Name)

	if err := run(cfg); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 mapd успешно остановлен")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ТЕЛЕМЕТРИЯ ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, "mudmap", cfg.Telemetry.Endpoint)
		if err != nil {
			logging.Warn("⚠️ OpenTelemetry недоступен: %v", err)
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(sctx)
			}()
		}
	}

	// === ХРАНИЛИЩА ===
	store, err := storage.OpenWorldStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open world store: %w", err)
	}
	defer store.Close()

	viewpoints := storage.OpenViewpointRepo(cfg.Viewpoints)
	defer viewpoints.Close()

	w, err := loadOrCreateWorld(ctx, store, cfg.World.Name)
	if err != nil {
		return err
	}

	// === ШИНА СОБЫТИЙ ===
	bus := openEventBus(cfg.EventBus)
	defer bus.Close()
	eventbus.Init(bus)

	if _, err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("⚠️ Не удалось подписать логгер событий: %v", err)
	}
	source := cfg.EventBus.NodeID
	if source == "" {
		source = "mapd"
	}
	w.SetObserver(eventbus.NewWorldPublisher(bus, source, w.Name))

	if cfg.EventBus.BatchSize > 0 {
		feed, err := changefeed.New(changefeed.Config{
			Source:     source,
			Bus:        bus,
			BatchSize:  cfg.EventBus.BatchSize,
			FlushEvery: time.Duration(cfg.EventBus.FlushMs) * time.Millisecond,
			Compress:   cfg.EventBus.Compress,
			OnBatch: func(from string, events []*eventbus.Envelope) {
				logging.GetEventBusLogger().Info("📦 %d изменений мира от узла %s", len(events), from)
			},
		})
		if err != nil {
			logging.Warn("⚠️ Лента изменений не запущена: %v", err)
		} else {
			defer feed.Stop()
		}
	}

	exporter := eventbus.NewMetricsExporter(bus, prometheus.DefaultRegisterer)
	exporter.StartHTTP(fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()))
	defer exporter.Stop()

	// === РЕДАКТОР И REST API ===
	session := editor.NewSession(w, editor.Options{
		HistoryLimit: cfg.Editor.HistoryLimit,
		Listener: editor.MessageFunc(func(msg string) {
			logging.GetEditorLogger().Info("💬 %s", msg)
		}),
		Metrics: editor.NewMetrics(prometheus.DefaultRegisterer),
	})

	tokens, users, err := setupAuth(cfg.Auth)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	restPort := cfg.Server.GetRESTPort()
	server := api.NewRestServer(api.Config{
		Port:           fmt.Sprintf(":%d", restPort),
		Session:        session,
		Store:          store,
		Viewpoints:     viewpoints,
		WorldName:      w.Name,
		NeighborRadius: cfg.Editor.NeighborRadius,
		Tokens:         tokens,
		Users:          users,
		Bus:            bus,
		Logger:         logging.GetAPILogger(),
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost:%d", restPort)
	logging.Info("   ❤️  Health check: http://localhost:%d/health", restPort)
	logging.Info("   📡 События: ws://localhost:%d/api/events/ws", restPort)

	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал завершения, останавливаемся...")
	case err := <-errCh:
		if err != nil {
			logging.Error("❌ REST API остановлен с ошибкой: %v", err)
		}
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}

	err = session.Do(func(w *world.World) error {
		return store.SaveWorld(shutdownCtx, w.Name, w)
	})
	if err != nil {
		return fmt.Errorf("save world on shutdown: %w", err)
	}
	logging.Info("💾 Мир %q сохранён (%d мест)", w.Name, w.PlaceCount())
	return nil
}

// loadOrCreateWorld загружает мир из хранилища или создаёт новый с одним слоем
func loadOrCreateWorld(ctx context.Context, store storage.WorldStore, name string) (*world.World, error) {
	w, err := store.LoadWorld(ctx, name)
	switch {
	case err == nil:
		logging.Info("📂 Мир %q загружен: %d слоёв, %d мест", name, len(w.Layers()), w.PlaceCount())
		return w, nil
	case errors.Is(err, storage.ErrWorldNotFound):
		w = world.New(name)
		ground := w.NewLayer("ground")
		w.SetHome(world.NewWorldCoordinate(ground.ID(), 0, 0))
		logging.Info("🆕 Мир %q не найден, создан пустой", name)
		return w, nil
	default:
		return nil, fmt.Errorf("load world %q: %w", name, err)
	}
}

// openEventBus подключается к JetStream, если задан URL; иначе шина в памяти
func openEventBus(cfg config.EventBusConfig) eventbus.EventBus {
	if cfg.URL == "" {
		return eventbus.NewMemoryBus(1024)
	}
	bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
	if err != nil {
		logging.Warn("⚠️ JetStream недоступен (%v), используется шина в памяти", err)
		return eventbus.NewMemoryBus(1024)
	}
	logging.Info("📨 Подключена шина событий JetStream %s, stream=%s", cfg.URL, cfg.Stream)
	return bus
}

// setupAuth создаёт менеджер токенов и учётные записи из конфигурации.
// При выключенной авторизации возвращает nil, nil.
func setupAuth(cfg config.AuthConfig) (*auth.TokenManager, auth.UserRepository, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}
	if cfg.Secret == "" {
		logging.Warn("⚠️ auth.secret не задан, токены не переживут перезапуск")
	}
	tokens, err := auth.NewTokenManager(cfg.Secret, cfg.TokenTTL())
	if err != nil {
		return nil, nil, fmt.Errorf("auth: %w", err)
	}

	users := auth.NewMemoryUserRepo()
	for _, u := range cfg.Users {
		role, err := auth.ParseRole(u.Role)
		if err != nil {
			return nil, nil, fmt.Errorf("auth user %q: %w", u.Name, err)
		}
		if _, err := users.CreateUser(u.Name, u.PasswordHash, role); err != nil {
			return nil, nil, fmt.Errorf("auth user %q: %w", u.Name, err)
		}
	}
	logging.Info("🔐 Авторизация включена, пользователей: %d", len(cfg.Users))
	return tokens, users, nil
}
