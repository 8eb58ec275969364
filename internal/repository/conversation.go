package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sudooom.portal/internal/model"
)

var (
	// ErrConversationNotFound 会话不存在
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrMalformedConversation 会话行数据异常（参与者缺失或重复）
	ErrMalformedConversation = errors.New("malformed conversation record")
)

// ConversationRepository 会话数据访问
// 会话创建后不可变，永不删除
type ConversationRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewConversationRepository 创建会话仓库
func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{
		db:     db,
		logger: slog.Default(),
	}
}

// FindByParticipants 按成员关系查找两人会话
// 先按单侧成员查出候选集，再在结果里匹配另一方，
// 与参数顺序无关；没有命中返回 ErrConversationNotFound
func (r *ConversationRepository) FindByParticipants(ctx context.Context, a, b int64) (*model.Conversation, error) {
	query := `
		SELECT id, object_code, participant_a, participant_b, created_at
		FROM conversations
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, a)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			if errors.Is(err, ErrMalformedConversation) {
				// 异常行跳过并告警，不能让一条脏数据拖垮整个查找
				r.logger.Warn("Skipping malformed conversation record", "error", err)
				continue
			}
			return nil, err
		}
		if conv.HasParticipant(b) {
			return conv, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return nil, ErrConversationNotFound
}

// Create 创建新会话
// id 和 created_at 由存储层分配
func (r *ConversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	query := `
		INSERT INTO conversations (object_code, participant_a, participant_b, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`
	return r.db.QueryRow(ctx, query,
		conv.ObjectCode,
		conv.ParticipantA,
		conv.ParticipantB,
	).Scan(&conv.ID, &conv.CreatedAt)
}

// FindByID 通过 ID 获取会话
func (r *ConversationRepository) FindByID(ctx context.Context, id int64) (*model.Conversation, error) {
	query := `
		SELECT id, object_code, participant_a, participant_b, created_at
		FROM conversations WHERE id = $1
	`
	row := r.db.QueryRow(ctx, query, id)
	conv := &model.Conversation{}
	err := row.Scan(
		&conv.ID,
		&conv.ObjectCode,
		&conv.ParticipantA,
		&conv.ParticipantB,
		&conv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if err := validateConversation(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// scanConversation 读取并校验一行会话记录
// 存储层读取边界做显式校验，而不是无检查地信任行数据
func scanConversation(rows pgx.Rows) (*model.Conversation, error) {
	conv := &model.Conversation{}
	err := rows.Scan(
		&conv.ID,
		&conv.ObjectCode,
		&conv.ParticipantA,
		&conv.ParticipantB,
		&conv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := validateConversation(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func validateConversation(conv *model.Conversation) error {
	if conv.ParticipantA <= 0 || conv.ParticipantB <= 0 || conv.ParticipantA == conv.ParticipantB {
		return ErrMalformedConversation
	}
	return nil
}
