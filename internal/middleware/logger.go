package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jengzang/webgis-dashboard/internal/logger"
	"github.com/jengzang/webgis-dashboard/internal/metrics"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "RequestID"

// RequestID assigns every request an id and a logger carrying it
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)

		l := logger.L().With(zap.String("request_id", id))
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), l))
		c.Next()
	}
}

// Logger middleware logs HTTP requests and records request metrics
func Logger(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Start timer
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		// Process request
		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		m.ObserveRequest(c.FullPath(), c.Request.Method, statusCode, latency)

		if path == "/health" || path == "/metrics" {
			return
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Int("status", statusCode),
			zap.Duration("latency", latency),
		}
		if raw != "" {
			fields = append(fields, zap.String("query", raw))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}

		l := logger.FromContext(c.Request.Context())
		switch {
		case statusCode >= 500:
			l.Error("request failed", fields...)
		case statusCode >= 400:
			l.Warn("request rejected", fields...)
		default:
			l.Info("request", fields...)
		}
	}
}
