package middleware

import (
	"time"

	"github.com/annel0/topomap/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDKey - ключ gin.Context с идентификатором трассировки запроса
const TraceIDKey = "trace_id"

// RequestLogger снабжает каждый HTTP-запрос trace-ID и пишет краткие логи.
// Ответы 5xx пишутся уровнем Error, 4xx - Warn, остальные - Debug.
type RequestLogger struct {
	log *logging.Logger
}

// NewRequestLogger создаёт логгер запросов; nil - логгер сервера
func NewRequestLogger(log *logging.Logger) *RequestLogger {
	if log == nil {
		log = logging.GetServerLogger()
	}
	return &RequestLogger{log: log}
}

func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// trace-id из OpenTelemetry, если span уже создан
		span := trace.SpanFromContext(c.Request.Context())
		var traceID string
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = uuid.NewString()
		}
		c.Set(TraceIDKey, traceID)
		c.Header("X-Trace-Id", traceID)

		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		switch {
		case status >= 500:
			rl.log.Error("[HTTP] %s %s %d %s ip=%s trace=%s err=%s", method, path, status, latency, c.ClientIP(), traceID, c.Errors.String())
		case status >= 400:
			rl.log.Warn("[HTTP] %s %s %d %s ip=%s trace=%s", method, path, status, latency, c.ClientIP(), traceID)
		default:
			rl.log.Debug("[HTTP] %s %s %d %s %dB trace=%s", method, path, status, latency, c.Writer.Size(), traceID)
		}
	}
}
