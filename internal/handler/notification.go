package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"sudooom.portal/internal/middleware"
	"sudooom.portal/internal/model"
	"sudooom.portal/pkg/response"
)

// NotificationReader 通知收件箱读取
type NotificationReader interface {
	List(ctx context.Context, recipientID int64, offset, limit int64) ([]*model.Notification, error)
	Dismiss(ctx context.Context, recipientID, notificationID int64) error
	Count(ctx context.Context, recipientID int64) (int64, error)
}

// NotificationHandler 通知处理器
type NotificationHandler struct {
	notifications NotificationReader
}

// NewNotificationHandler 创建通知处理器
func NewNotificationHandler(notifications NotificationReader) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List 列出当前用户的未处理通知（新的在前）
// GET /api/v1/notifications?offset=0&limit=20
func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	list, err := h.notifications.List(c.Request.Context(), userID, offset, limit)
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, gin.H{"list": list})
}

// Dismiss 撤下一条通知，重复撤下是无害的
// DELETE /api/v1/notifications/:id
func (h *NotificationHandler) Dismiss(c *gin.Context) {
	userID := middleware.GetUserID(c)

	notificationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, response.CodeInvalidParams)
		return
	}

	if err := h.notifications.Dismiss(c.Request.Context(), userID, notificationID); err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, nil)
}

// Count 当前用户的未处理通知数
// GET /api/v1/notifications/count
func (h *NotificationHandler) Count(c *gin.Context) {
	userID := middleware.GetUserID(c)

	count, err := h.notifications.Count(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, gin.H{"count": count})
}
