package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"sudooom.portal/internal/middleware"
	"sudooom.portal/internal/model"
	"sudooom.portal/internal/repository"
	"sudooom.portal/internal/service"
	"sudooom.portal/pkg/response"
)

// ConversationHandler 会话处理器
type ConversationHandler struct {
	conversations *service.ConversationService
	messages      *service.MessageService
}

// NewConversationHandler 创建会话处理器
func NewConversationHandler(conversations *service.ConversationService, messages *service.MessageService) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		messages:      messages,
	}
}

// OpenRequest 打开会话请求
// 二选一：对方的账号 ID，或对方的邮箱
type OpenRequest struct {
	PeerID    int64  `json:"peer_id"`
	PeerEmail string `json:"peer_email"`
}

// Open 打开（必要时创建）与指定对方的会话
// POST /api/v1/conversations/open
func (h *ConversationHandler) Open(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidParams, err.Error())
		return
	}
	if req.PeerID == 0 && req.PeerEmail == "" {
		response.Error(c, response.CodeInvalidParams)
		return
	}

	var (
		conv *model.Conversation
		err  error
	)
	if req.PeerID != 0 {
		conv, err = h.conversations.Resolve(c.Request.Context(), userID, req.PeerID)
	} else {
		conv, _, err = h.conversations.ResolveByEmail(c.Request.Context(), userID, req.PeerEmail)
	}
	if err != nil {
		h.writeResolveError(c, err)
		return
	}

	history, err := h.messages.History(c.Request.Context(), userID, conv.ID)
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, gin.H{
		"conversation": conv,
		"messages":     messageViews(history),
	})
}

// History 获取会话消息日志
// GET /api/v1/conversations/:id/messages
func (h *ConversationHandler) History(c *gin.Context) {
	userID := middleware.GetUserID(c)

	conversationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, response.CodeInvalidParams)
		return
	}

	history, err := h.messages.History(c.Request.Context(), userID, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			response.Error(c, response.CodeConversationNotFound)
			return
		}
		response.Error(c, response.CodeServerError)
		return
	}

	response.Success(c, gin.H{"list": messageViews(history)})
}

func (h *ConversationHandler) writeResolveError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrSelfConversation) {
		response.Error(c, response.CodeCannotChatSelf)
		return
	}
	if errors.Is(err, repository.ErrAccountNotFound) {
		response.Error(c, response.CodeAccountNotFound)
		return
	}
	response.Error(c, response.CodeServerError)
}

// messageView 消息的展示形态，附带推导出的附件类别
type messageView struct {
	*model.Message
	AttachmentKind model.AttachmentKind `json:"attachment_kind,omitempty"`
}

func messageViews(messages []*model.Message) []messageView {
	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, messageView{Message: m, AttachmentKind: m.AttachmentKind()})
	}
	return views
}
