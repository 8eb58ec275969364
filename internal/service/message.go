package service

import (
	"context"
	"io"
	"log/slog"

	"sudooom.portal/internal/blob"
	"sudooom.portal/internal/model"
	"sudooom.portal/pkg/apperrors"
)

// MessageStore 消息日志存储
type MessageStore interface {
	Append(ctx context.Context, msg *model.Message) error
	ListByConversation(ctx context.Context, conversationID int64) ([]*model.Message, error)
}

// EventPublisher 已入库消息的事件发布
type EventPublisher interface {
	PublishMessage(msg *model.Message) error
}

// Notifier 通知副通道入口
type Notifier interface {
	Enqueue(n *model.Notification)
}

// MessageService 消息服务
// 发送主流程：解析会话 ->（上传附件）-> 追加消息 -> 发布事件 -> 入队通知。
// 追加成功即发送成功；事件发布和通知都是附带动作，失败不回滚
type MessageService struct {
	conversations *ConversationService
	messages      MessageStore
	accounts      AccountStore
	blobs         blob.Store
	publisher     EventPublisher
	notifier      Notifier
	logger        *slog.Logger
}

// NewMessageService 创建消息服务
func NewMessageService(
	conversations *ConversationService,
	messages MessageStore,
	accounts AccountStore,
	blobs blob.Store,
	publisher EventPublisher,
	notifier Notifier,
) *MessageService {
	return &MessageService{
		conversations: conversations,
		messages:      messages,
		accounts:      accounts,
		blobs:         blobs,
		publisher:     publisher,
		notifier:      notifier,
		logger:        slog.Default(),
	}
}

// SendText 在会话里发送一条文本消息
func (s *MessageService) SendText(ctx context.Context, senderID, conversationID int64, body string) (*model.Message, error) {
	return s.send(ctx, senderID, conversationID, body, "", "")
}

// SendAttachment 发送携带附件的消息（正文可选）
// 先等待上传进入终态：失败则放弃发送，不产生消息也不产生通知；
// 成功后消息引用上传返回的 URL
func (s *MessageService) SendAttachment(ctx context.Context, senderID, conversationID int64, caption, filename string, r io.Reader) (*model.Message, error) {
	up, err := s.blobs.Upload(ctx, filename, r)
	if err != nil {
		return nil, apperrors.ErrUploadFailed.Wrap(err)
	}

	url, err := up.Wait(ctx)
	if err != nil {
		return nil, apperrors.ErrUploadFailed.Wrap(err)
	}

	return s.send(ctx, senderID, conversationID, caption, url, filename)
}

// History 返回会话的完整消息日志（升序）
func (s *MessageService) History(ctx context.Context, selfID, conversationID int64) ([]*model.Message, error) {
	if _, err := s.conversations.Get(ctx, conversationID, selfID); err != nil {
		return nil, err
	}
	return s.messages.ListByConversation(ctx, conversationID)
}

// send 公共发送流程
func (s *MessageService) send(ctx context.Context, senderID, conversationID int64, body, attachmentURL, attachmentName string) (*model.Message, error) {
	conv, err := s.conversations.Get(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	sender, err := s.accounts.FindByID(ctx, senderID)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		SenderName:     sender.DisplayName, // 发送时刻的快照
		Body:           body,
		AttachmentURL:  attachmentURL,
		AttachmentName: attachmentName,
	}
	if err := msg.Validate(); err != nil {
		return nil, apperrors.ErrEmptyMessage.Wrap(err)
	}

	if err := s.messages.Append(ctx, msg); err != nil {
		s.logger.Error("Failed to append message",
			"conversationId", conv.ID,
			"senderId", senderID,
			"error", err)
		return nil, err
	}

	// 事件发布失败不影响发送结果：订阅者重连后从日志补齐
	if err := s.publisher.PublishMessage(msg); err != nil {
		s.logger.Warn("Failed to publish message event",
			"conversationId", conv.ID,
			"messageId", msg.ID,
			"error", err)
	}

	// 通知副通道：每次成功追加至多尝试一次写入
	s.notifier.Enqueue(&model.Notification{
		RecipientID:    conv.Peer(senderID),
		SenderName:     msg.SenderName,
		Body:           msg.Body,
		AttachmentURL:  msg.AttachmentURL,
		AttachmentName: msg.AttachmentName,
		CreatedAt:      msg.CreatedAt,
	})

	return msg, nil
}
