package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridehail/internal/domain"
	"ridehail/internal/middleware"
	"ridehail/internal/service"
)

// NotificationLister lists a user's stored notifications.
type NotificationLister interface {
	List(ctx context.Context, uid string, limit int) ([]*domain.Notification, error)
}

// NotificationHandler handles HTTP requests for the notification inbox.
type NotificationHandler struct {
	inbox NotificationLister
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(inbox NotificationLister) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

// List handles GET /v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	uid := middleware.CallerUID(c)
	if uid == "" {
		respondError(c, service.ErrUnauthenticated)
		return
	}

	limit := queryLimit(c)
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	items, err := h.inbox.List(c.Request.Context(), uid, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]gin.H, len(items))
	for i, n := range items {
		resp[i] = gin.H{
			"id":         n.ID,
			"type":       n.Type,
			"title":      n.Title,
			"body":       n.Body,
			"data":       n.Data,
			"is_read":    n.IsRead,
			"created_at": formatTime(n.CreatedAt),
		}
	}
	respondJSON(c, http.StatusOK, gin.H{"notifications": resp})
}
