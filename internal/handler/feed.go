package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"sudooom.portal/internal/feed"
	"sudooom.portal/internal/middleware"
	"sudooom.portal/internal/repository"
	"sudooom.portal/internal/service"
	"sudooom.portal/pkg/response"
)

// FeedHandler 会话实时消息流（SSE）
type FeedHandler struct {
	conversations *service.ConversationService
	hub           *feed.Hub
}

// NewFeedHandler 创建实时消息流处理器
func NewFeedHandler(conversations *service.ConversationService, hub *feed.Hub) *FeedHandler {
	return &FeedHandler{
		conversations: conversations,
		hub:           hub,
	}
}

// Stream 订阅会话消息流
// GET /api/v1/conversations/:id/feed
// 先推送订阅时刻的完整日志，再按到达顺序推送新消息；
// 客户端断开时释放订阅
func (h *FeedHandler) Stream(c *gin.Context) {
	userID := middleware.GetUserID(c)

	conversationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, response.CodeInvalidParams)
		return
	}

	if _, err := h.conversations.Get(c.Request.Context(), conversationID, userID); err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			response.Error(c, response.CodeConversationNotFound)
			return
		}
		response.Error(c, response.CodeServerError)
		return
	}

	sub, err := h.hub.Subscribe(c.Request.Context(), conversationID)
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}
	defer sub.Close()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-sub.Messages():
			if !ok {
				return false
			}
			c.SSEvent("message", msg)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
