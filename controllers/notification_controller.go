package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/healoop/healoop/models"
	"github.com/healoop/healoop/utils"
)

// NotificationController lists and marks user notifications.
type NotificationController struct {
	db *gorm.DB
}

// NewNotificationController creates a new controller instance.
func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{db: db}
}

// ListNotifications returns the caller's notifications newest first, with an
// unread counter for badge display.
func (n *NotificationController) ListNotifications(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	query := n.db.Where("user_id = ?", userID)
	if ctx.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	var total int64
	if err := query.Model(&models.Notification{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50100, "failed to list notifications")
		return
	}
	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&notifications).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50100, "failed to list notifications")
		return
	}

	var unread int64
	n.db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&unread)

	utils.Success(ctx, gin.H{
		"notifications": notifications,
		"unread":        unread,
		"total":         total,
		"page":          page,
		"page_size":     pageSize,
	})
}

// MarkRead marks one notification as read.
func (n *NotificationController) MarkRead(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id < 1 {
		utils.Error(ctx, http.StatusBadRequest, 40100, "invalid notification id")
		return
	}

	res := n.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).Update("is_read", true)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50101, "failed to mark notification")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40400, "notification not found")
		return
	}

	utils.Success(ctx, gin.H{"read": true})
}

// MarkAllRead marks every unread notification of the caller as read.
func (n *NotificationController) MarkAllRead(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	res := n.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).Update("is_read", true)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50102, "failed to mark notifications")
		return
	}

	utils.Success(ctx, gin.H{"marked": res.RowsAffected})
}

// DeleteNotification removes one notification owned by the caller.
func (n *NotificationController) DeleteNotification(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id < 1 {
		utils.Error(ctx, http.StatusBadRequest, 40100, "invalid notification id")
		return
	}

	res := n.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50103, "failed to delete notification")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40400, "notification not found")
		return
	}

	utils.Success(ctx, gin.H{"deleted": true})
}
