package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/annel0/mudmap/internal/auth"
	"github.com/annel0/mudmap/internal/editor"
	"github.com/annel0/mudmap/internal/eventbus"
	"github.com/annel0/mudmap/internal/logging"
	"github.com/annel0/mudmap/internal/middleware"
	"github.com/annel0/mudmap/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer представляет REST API редактора карты
type RestServer struct {
	router         *gin.Engine
	httpServer     *http.Server
	session        *editor.Session
	store          storage.WorldStore
	viewpoints     storage.ViewpointRepo
	worldName      string
	neighborRadius int
	port           string
	metrics        *ServerMetrics
	tokens         *auth.TokenManager
	users          auth.UserRepository
	bus            eventbus.EventBus
	logger         *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port           string                // порт для запуска сервера, ":8088"
	Session        *editor.Session       // сессия редактора над загруженным миром
	Store          storage.WorldStore    // хранилище снимков мира (может быть nil)
	Viewpoints     storage.ViewpointRepo // истории позиций пользователей (может быть nil)
	WorldName      string                // имя мира в хранилище
	NeighborRadius int                   // радиус по умолчанию для /neighbors
	Registry       *prometheus.Registry  // nil: дефолтный регистр Prometheus
	Tokens         *auth.TokenManager    // nil: авторизация выключена
	Users          auth.UserRepository   // учётные записи для /api/auth/login
	Bus            eventbus.EventBus     // источник событий для /api/events/ws (может быть nil)
	Logger         *logging.Logger
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.NeighborRadius < 1 {
		config.NeighborRadius = 1
	}
	if config.WorldName == "" && config.Session != nil {
		config.WorldName = config.Session.World().Name
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger(config.Logger)
	router.Use(loggerMw.Handler())

	router.Use(otelgin.Middleware("mudmap_api"))

	promMw := middleware.NewPrometheusMiddleware("mudmap_api", config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:         router,
		session:        config.Session,
		store:          config.Store,
		viewpoints:     config.Viewpoints,
		worldName:      config.WorldName,
		neighborRadius: config.NeighborRadius,
		port:           config.Port,
		metrics:        NewServerMetrics(),
		tokens:         config.Tokens,
		users:          config.Users,
		bus:            config.Bus,
		logger:         config.Logger,
	}

	server.setupRoutes()
	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	rs.router.GET("/health", rs.handleHealth)
	rs.router.POST("/api/auth/login", rs.handleLogin)

	api := rs.router.Group("/api")
	if rs.tokens != nil {
		api.Use(rs.authMiddleware())
	}
	api.GET("/stats", rs.handleStats)
	api.GET("/events/ws", rs.handleEventStream)

	layers := api.Group("/layers")
	{
		layers.GET("", rs.handleGetLayers)
		layers.POST("", rs.handleCreateLayer)
		layers.GET("/:id/places", rs.handleLayerPlaces)
		layers.POST("/:id/places", rs.handleCreatePlace)
		layers.GET("/:id/cells/:x/:y", rs.handleCell)
		layers.GET("/:id/neighbors", rs.handleNeighbors)
		layers.POST("/:id/placeholders", rs.handleTogglePlaceholder)
	}

	api.POST("/paths", rs.handleConnectPath)
	api.DELETE("/paths", rs.handleRemovePath)

	places := api.Group("/places/:place")
	{
		places.DELETE("", rs.handleRemovePlace)
		places.GET("/suggestions", rs.handleSuggestions)
		places.POST("/children", rs.handleConnectChild)
		places.DELETE("/children/:child", rs.handleRemoveChild)
		places.POST("/child-layer", rs.handleCreateChildLayer)
	}
	api.POST("/search", rs.handleSearch)

	clip := api.Group("/clipboard")
	{
		clip.POST("/copy", rs.handleCopy)
		clip.POST("/cut", rs.handleCut)
		clip.POST("/paste", rs.handlePaste)
		clip.DELETE("", rs.handleResetClipboard)
	}

	api.POST("/selection/box", rs.handleSelectBox)

	views := api.Group("/viewpoints")
	{
		views.GET("/:user", rs.handleGetViewpoint)
		views.PUT("/:user", rs.handlePutViewpoint)
		views.POST("/:user/save", rs.handleSaveViewpoint)
		views.POST("/:user/restore", rs.handleRestoreViewpoint)
	}

	api.POST("/world/save", rs.handleSaveWorld)
}

// Handler возвращает http.Handler сервера (используется в тестах)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает REST сервер. Блокирует до остановки.
func (rs *RestServer) Start() error {
	rs.httpServer = &http.Server{
		Addr:              rs.port,
		Handler:           rs.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	rs.logInfo("🌐 REST API запущен на %s", rs.port)
	if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("rest server: %w", err)
	}
	return nil
}

// Stop останавливает REST сервер, дожидаясь завершения активных запросов
func (rs *RestServer) Stop(ctx context.Context) error {
	if rs.httpServer == nil {
		return nil
	}
	rs.logInfo("🛑 Остановка REST API")
	return rs.httpServer.Shutdown(ctx)
}

func (rs *RestServer) logInfo(format string, args ...interface{}) {
	if rs.logger != nil {
		rs.logger.Info(format, args...)
		return
	}
	logging.Info(format, args...)
}

func (rs *RestServer) logError(format string, args ...interface{}) {
	if rs.logger != nil {
		rs.logger.Error(format, args...)
		return
	}
	logging.Error(format, args...)
}
