package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendora/backend/internal/models"
	"github.com/vendora/backend/internal/util"
)

// GetNotifications returns the caller's notification feed, newest first.
// Delivery is pull-based: fetching the feed marks everything seen, the
// badge count comes from GetNotificationCounts.
//
// GET /notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID := c.GetString("user_id")
	limit, offset := pagination(c)

	var notifications []models.Notification
	err := h.db.WithContext(c.Request.Context()).
		Preload("Actor").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load notifications")
		return
	}

	// Fetching the feed clears the unseen badge
	h.db.WithContext(c.Request.Context()).
		Model(&models.Notification{}).
		Where("user_id = ? AND seen = ?", userID, false).
		Update("seen", true)

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"limit":         limit,
		"offset":        offset,
	})
}

// GetNotificationCounts returns unseen/unread counts for badges
//
// GET /notifications/counts
func (h *Handlers) GetNotificationCounts(c *gin.Context) {
	userID := c.GetString("user_id")

	var unseen, unread int64
	h.db.WithContext(c.Request.Context()).
		Model(&models.Notification{}).
		Where("user_id = ? AND seen = ?", userID, false).
		Count(&unseen)
	h.db.WithContext(c.Request.Context()).
		Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&unread)

	c.JSON(http.StatusOK, gin.H{
		"unseen": unseen,
		"unread": unread,
	})
}

// MarkNotificationRead marks a single notification read
//
// PATCH /notifications/:id
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	userID := c.GetString("user_id")

	result := h.db.WithContext(c.Request.Context()).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		Updates(map[string]interface{}{"read": true, "seen": true})
	if result.Error != nil {
		util.RespondInternalError(c, "failed to mark notification read")
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "notification")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

// MarkAllNotificationsRead marks the caller's whole feed read
//
// POST /notifications/read
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	userID := c.GetString("user_id")

	err := h.db.WithContext(c.Request.Context()).
		Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{"read": true, "seen": true}).Error
	if err != nil {
		util.RespondInternalError(c, "failed to mark notifications read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "read"})
}
