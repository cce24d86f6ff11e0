package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	traceIDHeader = "X-Trace-ID"
	traceIDKey    = "trace_id"
)

// traceID tags every request with an id, reusing the caller's X-Trace-ID
// when present, and echoes it back in the response.
func traceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(traceIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(traceIDKey, id)
		c.Header(traceIDHeader, id)
		c.Next()
	}
}

func getTraceID(c *gin.Context) string {
	return c.GetString(traceIDKey)
}

func logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			slog.String(traceIDKey, getTraceID(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		}

		switch {
		case c.Writer.Status() >= 500:
			slog.Error("request completed", attrs...)
		case c.Writer.Status() >= 400:
			slog.Warn("request completed", attrs...)
		default:
			slog.Info("request completed", attrs...)
		}
	}
}

// requestTimeout bounds the context handed to the service layer.
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
