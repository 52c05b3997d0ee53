package middleware

import (
	"time"

	"github.com/annel0/blockverse/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// RequestLogger присваивает запросу trace-ID и пишет строку лога по завершении
type RequestLogger struct {
	logger *logging.Logger
}

// NewRequestLogger создаёт middleware с логгером компонента "http"
func NewRequestLogger() *RequestLogger {
	return &RequestLogger{logger: logging.GetComponentLogger("http")}
}

// Handler возвращает gin.HandlerFunc для router.Use()
func (rl *RequestLogger) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// trace-id берется из OpenTelemetry, если span уже создан otelgin
		traceID := uuid.NewString()
		if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.IsValid() {
			traceID = sc.TraceID().String()
		}
		c.Set("trace_id", traceID)
		c.Header("X-Trace-Id", traceID)

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		if status >= 500 {
			rl.logger.Error("[HTTP] %s %s %d %s ip=%s trace=%s", c.Request.Method, path, status, time.Since(start), c.ClientIP(), traceID)
			return
		}
		rl.logger.Debug("[HTTP] %s %s %d %s ip=%s trace=%s", c.Request.Method, path, status, time.Since(start), c.ClientIP(), traceID)
	}
}
