package eventbus

import (
	"net/http"
	"time"

	"github.com/annel0/mudmap/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsExporter переносит Stats шины в Prometheus и при необходимости
// поднимает отдельный HTTP-эндпоинт /metrics.
type MetricsExporter struct {
	bus      EventBus
	interval time.Duration
	server   *http.Server
	quit     chan struct{}
	done     chan struct{}
	started  bool
	// Prometheus metrics
	published prometheus.Counter
	consumed  prometheus.Counter
	dropped   prometheus.Counter
	inflight  prometheus.Gauge
}

// NewMetricsExporter создаёт экспортер и регистрирует метрики в reg (nil: без регистрации).
// Ничего не запускает.
func NewMetricsExporter(bus EventBus, reg prometheus.Registerer) *MetricsExporter {
	me := &MetricsExporter{
		bus:      bus,
		interval: time.Second,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mudmap_eventbus",
			Name:      "messages_published_total",
			Help:      "Общее число опубликованных сообщений.",
		}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mudmap_eventbus",
			Name:      "messages_consumed_total",
			Help:      "Общее число доставленных сообщений подписчикам.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mudmap_eventbus",
			Name:      "messages_dropped_total",
			Help:      "Сообщений, отброшенных из-за ошибок или ограничения back-pressure.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mudmap_eventbus",
			Name:      "messages_inflight",
			Help:      "Количество сообщений, находящихся в очереди (не доставленных).",
		}),
	}

	if reg != nil {
		reg.MustRegister(me.published, me.consumed, me.dropped, me.inflight)
	}
	return me
}

// Start запускает периодическое обновление метрик без HTTP-сервера
// (когда /metrics уже отдаёт REST API).
func (m *MetricsExporter) Start() {
	if m.started {
		return
	}
	m.started = true
	go m.loop()
}

// StartHTTP запускает HTTP-эндпоинт Prometheus на указанном адресе (например, ":2112").
// Метод неблокирующий: HTTP-сервер стартует в отдельной горутине.
func (m *MetricsExporter) StartHTTP(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	m.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	m.Start()
}

// Stop останавливает обновление метрик и HTTP-сервер, если он был запущен.
func (m *MetricsExporter) Stop() {
	if !m.started {
		return
	}
	close(m.quit)
	<-m.done
	m.started = false
	if m.server != nil {
		_ = m.server.Close()
	}
}

func (m *MetricsExporter) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	defer close(m.done)

	// Для коррекции Counter нужно хранить прошлое значение и прибавлять дельту.
	var prev Stats

	for {
		select {
		case <-ticker.C:
			prev = m.collect(prev)
		case <-m.quit:
			return
		}
	}
}

// collect переносит приращения Stats в счётчики и возвращает новое состояние
func (m *MetricsExporter) collect(prev Stats) Stats {
	stats := m.bus.Metrics()

	deltaPub := stats.Published - prev.Published
	deltaCons := stats.Consumed - prev.Consumed
	deltaDrop := stats.Dropped - prev.Dropped

	if deltaPub > 0 {
		m.published.Add(float64(deltaPub))
	}
	if deltaCons > 0 {
		m.consumed.Add(float64(deltaCons))
	}
	if deltaDrop > 0 {
		m.dropped.Add(float64(deltaDrop))
	}
	m.inflight.Set(float64(stats.InFlight))
	return stats
}
