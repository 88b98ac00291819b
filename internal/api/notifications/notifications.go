// Package notifications implements the in-portal notification endpoints.
// Notifications are created server-side by the forum, helpdesk, and admin
// handlers; this package only exposes the per-user read surface.
package notifications

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/member-portal/member-portal/internal/db/repositories"
)

// Handlers handles notification endpoints
type Handlers struct {
	notificationRepo *repositories.NotificationRepository
}

// NewHandlers creates a new notifications Handlers instance
func NewHandlers(db *sql.DB) *Handlers {
	return &Handlers{
		notificationRepo: repositories.NewNotificationRepository(db),
	}
}

// @Summary      List notifications
// @Description  List the authenticated user's notifications, newest first.
// @Tags         Notifications
// @Security     Bearer
// @Produce      json
// @Param        unread    query  bool  false  "Return unread notifications only"
// @Param        page      query  int   false  "Page number (default 1)"
// @Param        per_page  query  int   false  "Items per page, max 100 (default 20)"
// @Success      200  {object}  map[string]interface{}  "notifications: []models.Notification, pagination: map"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/notifications [get]
// ListHandler lists the authenticated user's notifications
// GET /v1/notifications?unread=true&page=1&per_page=20
func (h *Handlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
		if page < 1 {
			page = 1
		}
		if perPage < 1 || perPage > 100 {
			perPage = 20
		}
		offset := (page - 1) * perPage

		unreadOnly := c.Query("unread") == "true"
		userID := c.GetString("user_id")

		items, total, err := h.notificationRepo.ListNotifications(c.Request.Context(), userID, unreadOnly, perPage, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list notifications",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"notifications": items,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// @Summary      Unread count
// @Description  Returns the number of unread notifications for the authenticated user.
// @Tags         Notifications
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "unread: int"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/notifications/unread-count [get]
// UnreadCountHandler returns the authenticated user's unread count
// GET /v1/notifications/unread-count
func (h *Handlers) UnreadCountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := h.notificationRepo.CountUnread(c.Request.Context(), c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to count notifications",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"unread": count,
		})
	}
}

// @Summary      Mark notification read
// @Description  Marks one of the authenticated user's notifications as read.
// @Tags         Notifications
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Notification ID"
// @Success      200  {object}  map[string]interface{}  "read: true"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "Notification not found"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/notifications/{id}/read [put]
// MarkReadHandler marks a notification as read
// PUT /v1/notifications/:id/read
func (h *Handlers) MarkReadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h.notificationRepo.MarkRead(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Notification not found",
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to mark notification read",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"read": true,
		})
	}
}

// @Summary      Mark all read
// @Description  Marks all of the authenticated user's notifications as read.
// @Tags         Notifications
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "marked: int"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /v1/notifications/read-all [put]
// MarkAllReadHandler marks all of the user's notifications as read
// PUT /v1/notifications/read-all
func (h *Handlers) MarkAllReadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		marked, err := h.notificationRepo.MarkAllRead(c.Request.Context(), c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to mark notifications read",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"marked": marked,
		})
	}
}
