package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ridehail/internal/middleware"
	"ridehail/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// respondError sends an error response with the status code of its category.
// Internal and transient reasons are replaced so storage detail never leaks.
func respondError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	reason := err.Error()

	switch kind {
	case service.KindInternal:
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "uid", middleware.CallerUID(c), "error", err)
		reason = "internal error"
	case service.KindAborted:
		slog.WarnContext(c.Request.Context(), "request aborted", "path", c.FullPath(), "uid", middleware.CallerUID(c), "error", err)
		reason = "please retry"
	}

	c.Error(err)
	c.JSON(statusForKind(kind), ErrorResponse{Error: string(kind), Reason: reason})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// statusForKind maps error categories to HTTP status codes.
func statusForKind(kind service.Kind) int {
	switch kind {
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindPermissionDenied:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindInvalidArgument:
		return http.StatusBadRequest
	case service.KindFailedPrecondition:
		return http.StatusConflict
	case service.KindAborted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// queryLimit reads ?limit=; services clamp the value.
func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return limit
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
