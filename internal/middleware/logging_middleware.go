package middleware

import (
	"time"

	"github.com/annel0/mudmap/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceHeader это заголовок ответа с trace-ID запроса
const TraceHeader = "X-Trace-ID"

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет краткие логи.
// Успешные запросы пишутся на уровне Debug, ошибки на Warn.
type RequestLogger struct {
	logger *logging.Logger
}

// NewRequestLogger создаёт middleware; nil logger: пакетный логгер по умолчанию
func NewRequestLogger(logger *logging.Logger) *RequestLogger {
	return &RequestLogger{logger: logger}
}

func (rl *RequestLogger) logf(status int, format string, args ...interface{}) {
	switch {
	case rl.logger != nil && status >= 400:
		rl.logger.Warn(format, args...)
	case rl.logger != nil:
		rl.logger.Debug(format, args...)
	case status >= 400:
		logging.Warn(format, args...)
	default:
		logging.Debug(format, args...)
	}
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Пытаемся извлечь trace-id из OpenTelemetry, если уже создан.
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set("trace_id", traceID)
		c.Header(TraceHeader, traceID)

		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		clientIP := c.ClientIP()

		rl.logf(0, "[HTTP] ▶ %s %s ip=%s trace=%s", method, path, clientIP, traceID)

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		rl.logf(status, "[HTTP] ◀ %s %s %d %s trace=%s", method, path, status, latency, traceID)
	}
}
