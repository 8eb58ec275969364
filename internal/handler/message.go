package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"sudooom.portal/internal/middleware"
	"sudooom.portal/internal/model"
	"sudooom.portal/internal/repository"
	"sudooom.portal/internal/service"
	"sudooom.portal/pkg/apperrors"
	"sudooom.portal/pkg/response"
)

// 附件大小上限 20MB
const maxAttachmentSize = 20 << 20

// MessageHandler 消息处理器
type MessageHandler struct {
	messages *service.MessageService
}

// NewMessageHandler 创建消息处理器
func NewMessageHandler(messages *service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// SendRequest 发送文本消息请求
type SendRequest struct {
	Body string `json:"body" binding:"required"`
}

// Send 发送文本消息
// POST /api/v1/conversations/:id/messages
func (h *MessageHandler) Send(c *gin.Context) {
	userID := middleware.GetUserID(c)

	conversationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, response.CodeInvalidParams)
		return
	}

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidParams, err.Error())
		return
	}

	msg, err := h.messages.SendText(c.Request.Context(), userID, conversationID, req.Body)
	if err != nil {
		h.writeSendError(c, err)
		return
	}

	response.Success(c, msg)
}

// SendAttachment 发送附件消息，multipart 表单：file 必填，body 可选做附言
// POST /api/v1/conversations/:id/attachments
func (h *MessageHandler) SendAttachment(c *gin.Context) {
	userID := middleware.GetUserID(c)

	conversationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, response.CodeInvalidParams)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ErrorWithMsg(c, response.CodeInvalidParams, "missing file field")
		return
	}
	if fileHeader.Size > maxAttachmentSize {
		response.ErrorWithMsg(c, response.CodeInvalidParams, "file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, response.CodeServerError)
		return
	}
	defer file.Close()

	body := c.PostForm("body")

	msg, err := h.messages.SendAttachment(c.Request.Context(), userID, conversationID, body, fileHeader.Filename, file)
	if err != nil {
		h.writeSendError(c, err)
		return
	}

	response.Success(c, msg)
}

func (h *MessageHandler) writeSendError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrConversationNotFound):
		response.Error(c, response.CodeConversationNotFound)
	case errors.Is(err, model.ErrEmptyMessage):
		response.Error(c, response.CodeEmptyMessage)
	case apperrors.GetCode(err) == apperrors.CodeUploadFailed:
		response.Error(c, response.CodeUploadFailed)
	default:
		response.Error(c, response.CodeServerError)
	}
}
