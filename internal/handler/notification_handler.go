package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"onboarding/internal/service"
)

type NotificationHandler struct {
	notifications *service.NotificationService
	logger        *zap.Logger
}

func NewNotificationHandler(notifications *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// List handles GET /notifications; unread=true limits to unread ones.
func (h *NotificationHandler) List(c *gin.Context) {
	uid, _ := currentUser(c)
	list, err := h.notifications.List(c.Request.Context(), uid, c.Query("unread") == "true")
	if err != nil {
		writeError(c, h.logger, "ListNotifications", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

// UnreadCount handles GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	uid, _ := currentUser(c)
	n, err := h.notifications.CountUnread(c.Request.Context(), uid)
	if err != nil {
		writeError(c, h.logger, "CountUnread", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}

// MarkRead handles POST /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	uid, _ := currentUser(c)
	if err := h.notifications.MarkAsRead(c.Request.Context(), uid, id); err != nil {
		writeError(c, h.logger, "MarkAsRead", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllRead handles POST /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	uid, _ := currentUser(c)
	n, err := h.notifications.MarkAllAsRead(c.Request.Context(), uid)
	if err != nil {
		writeError(c, h.logger, "MarkAllAsRead", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
