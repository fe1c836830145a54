package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bikepool/bikepool/internal/api/dto"
	"github.com/bikepool/bikepool/pkg/logger"
)

// ListNotifications handles GET /v1/notifications
//
// Viewing the list marks everything read, so the unread badge clears once the
// user has seen it.
func (h *Handlers) ListNotifications(c *gin.Context) {
	auth := authFrom(c)
	list, err := h.Notifications.ListByUser(c.Request.Context(), auth.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.Notifications.MarkAllRead(c.Request.Context(), auth.UserID); err != nil {
		h.Logger.Warn("Failed to mark notifications read", logger.Err(err))
	}

	out := make([]dto.NotificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, dto.NotificationResponse{
			ID:        n.ID,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"notifications": out})
}

// GetUnreadCount handles GET /v1/notifications/unread
func (h *Handlers) GetUnreadCount(c *gin.Context) {
	auth := authFrom(c)
	count, err := h.Notifications.CountUnread(c.Request.Context(), auth.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkNotificationsRead handles POST /v1/notifications/read
func (h *Handlers) MarkNotificationsRead(c *gin.Context) {
	auth := authFrom(c)
	if err := h.Notifications.MarkAllRead(c.Request.Context(), auth.UserID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "All notifications marked read"})
}

// DeleteNotification handles DELETE /v1/notifications/:id
func (h *Handlers) DeleteNotification(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification id"})
		return
	}

	auth := authFrom(c)
	if err := h.Notifications.Delete(c.Request.Context(), id, auth.UserID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "Notification deleted"})
}
