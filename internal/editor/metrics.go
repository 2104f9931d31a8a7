package editor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics это счётчики операций редактора
type Metrics struct {
	operations *prometheus.CounterVec
	placed     prometheus.Counter
}

// NewMetrics создаёт счётчики и регистрирует их в reg (nil: без регистрации)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mudmap",
			Subsystem: "editor",
			Name:      "operations_total",
			Help:      "Операции редактора по типу и результату.",
		}, []string{"op", "result"}),
		placed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mudmap",
			Subsystem: "editor",
			Name:      "places_pasted_total",
			Help:      "Мест размещено вставкой из буфера.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.placed)
	}
	return m
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) pasted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.placed.Add(float64(n))
}
