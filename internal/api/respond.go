package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/safar/storefront/internal/database"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrInsufficientInventory),
		errors.Is(err, database.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps err to a status code by its error kind. Unclassified
// errors are logged and reported without detail.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)

	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String(traceIDKey, getTraceID(c)),
			slog.String("error", err.Error()))
		c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
		return
	}

	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}

// bindJSON decodes the body into dst. Validation happens in the service
// layer.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		slog.Warn("invalid request body",
			slog.String(traceIDKey, getTraceID(c)),
			slog.String("error", err.Error()))
		badRequest(c, "invalid request body")
		return false
	}
	return true
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) int {
	n, _ := strconv.Atoi(c.Query(name))
	return n
}
