package logger

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-Id"
	ginLoggerKey    = "logger"

	maxRequestIDLen = 128
)

// Middleware tags every request with a request_id (taken from X-Request-Id
// when the client sent a sane one) and logs one summary line per request.
// The request logger is kept on the gin context and the request context,
// so handlers and the services they call share it. Middleware further down
// the chain may replace it via SetGin; the summary uses the final one.
func Middleware(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(headerRequestID)
		if rid == "" || len(rid) > maxRequestIDLen {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(headerRequestID, rid)
		SetGin(c, l.With("request_id", rid))

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration_ms", float64(time.Since(start).Milliseconds()),
		}

		reqLog := FromGin(c)
		switch {
		case len(c.Errors) > 0:
			reqLog.Error("request", append(attrs, "errors", c.Errors.String())...)
		case status >= 500:
			reqLog.Error("request", attrs...)
		case path == "/health":
			reqLog.Debug("request", attrs...)
		default:
			reqLog.Info("request", attrs...)
		}
	}
}

// SetGin installs l as the request logger on both the gin and request contexts.
func SetGin(c *gin.Context, l *slog.Logger) {
	c.Set(ginLoggerKey, l)
	c.Request = c.Request.WithContext(With(c.Request.Context(), l))
}

// FromGin pulls the request-scoped logger from Gin context.
func FromGin(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(ginLoggerKey); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
