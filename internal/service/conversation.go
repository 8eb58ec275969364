package service

import (
	"context"
	"errors"
	"log/slog"

	"sudooom.portal/internal/model"
	"sudooom.portal/internal/repository"
	"sudooom.portal/pkg/snowflake"
)

// ErrSelfConversation 不允许和自己建立会话
var ErrSelfConversation = errors.New("cannot open a conversation with yourself")

// ConversationStore 会话存储
type ConversationStore interface {
	FindByParticipants(ctx context.Context, a, b int64) (*model.Conversation, error)
	Create(ctx context.Context, conv *model.Conversation) error
	FindByID(ctx context.Context, id int64) (*model.Conversation, error)
}

// AccountStore 外部账号存储（只读）
type AccountStore interface {
	FindByID(ctx context.Context, id int64) (*model.Participant, error)
	FindByEmail(ctx context.Context, email string) (*model.Participant, error)
}

// ConversationService 会话服务
// 负责把任意两人解析到唯一的会话：同一对参与者无论谁先发起，
// 解析到的都是同一条会话记录
type ConversationService struct {
	conversations ConversationStore
	accounts      AccountStore
	idGen         *snowflake.Node
	logger        *slog.Logger
}

// NewConversationService 创建会话服务
func NewConversationService(conversations ConversationStore, accounts AccountStore, idGen *snowflake.Node) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		accounts:      accounts,
		idGen:         idGen,
		logger:        slog.Default(),
	}
}

// Resolve 解析两人会话，不存在则创建
// 查找按成员关系进行，与参数顺序无关。
// 已知竞态：双方几乎同时首次发起时，两边都可能看到"不存在"
// 而各建一条会话；底层存储没有按无序参与者对的唯一约束，
// 这里保留该行为而不是悄悄修掉
func (s *ConversationService) Resolve(ctx context.Context, selfID, otherID int64) (*model.Conversation, error) {
	if selfID == otherID {
		return nil, ErrSelfConversation
	}

	conv, err := s.conversations.FindByParticipants(ctx, selfID, otherID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, repository.ErrConversationNotFound) {
		return nil, err
	}

	conv = &model.Conversation{
		ObjectCode:   s.idGen.Generate().String(),
		ParticipantA: selfID,
		ParticipantB: otherID,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}

	s.logger.Info("Conversation created",
		"conversationId", conv.ID,
		"participantA", selfID,
		"participantB", otherID)

	return conv, nil
}

// ResolveByEmail 通过邮箱定位对方后解析会话
func (s *ConversationService) ResolveByEmail(ctx context.Context, selfID int64, email string) (*model.Conversation, *model.Participant, error) {
	peer, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if peer.ID == selfID {
		return nil, nil, ErrSelfConversation
	}

	conv, err := s.Resolve(ctx, selfID, peer.ID)
	if err != nil {
		return nil, nil, err
	}
	return conv, peer, nil
}

// Get 获取会话并校验访问者是参与者
func (s *ConversationService) Get(ctx context.Context, conversationID, selfID int64) (*model.Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(selfID) {
		return nil, repository.ErrConversationNotFound
	}
	return conv, nil
}
