package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"partyspark-backend/internal/middleware"
	"partyspark-backend/internal/models"
)

type NotificationHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewNotificationHandler(db *gorm.DB, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{db: db, log: log}
}

// List returns the caller's notifications, newest first. unread=true filters
// to unread only.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	query := h.db.Where("recipient_id = ?", userID)
	if c.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	offset, limit := pagination(c)

	var notifications []models.Notification
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&notifications).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// UnreadCount returns how many notifications are unread.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var n int64
	if err := h.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&n).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}

// MarkRead marks one notification read. Recipient only.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var notification models.Notification
	if err := h.db.First(&notification, "id = ?", id).Error; err != nil {
		jsonError(c, http.StatusNotFound, "notification not found")
		return
	}

	if notification.RecipientID != userID {
		jsonError(c, http.StatusForbidden, "not your notification")
		return
	}

	if err := h.db.Model(&notification).Update("is_read", true).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "could not mark read")
		return
	}
	c.JSON(http.StatusOK, notification)
}

// MarkAllRead marks every unread notification of the caller as read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	res := h.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		jsonError(c, http.StatusInternalServerError, "could not mark notifications read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": res.RowsAffected})
}
