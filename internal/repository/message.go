package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"sudooom.portal/internal/model"
)

// MessageRepository 消息数据访问
// 消息只追加：没有更新和删除，(created_at, id) 就是会话内的权威顺序
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository 创建消息仓库
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append 追加消息到会话日志末尾
// id 和 created_at 由存储层分配，同一毫秒内按插入顺序（id）决出先后
func (r *MessageRepository) Append(ctx context.Context, msg *model.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO messages (conversation_id, sender_id, sender_name, body, attachment_url, attachment_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`
	return r.db.QueryRow(ctx, query,
		msg.ConversationID,
		msg.SenderID,
		msg.SenderName,
		msg.Body,
		msg.AttachmentURL,
		msg.AttachmentName,
	).Scan(&msg.ID, &msg.CreatedAt)
}

// ListByConversation 按时间升序返回会话的全部消息
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID int64) ([]*model.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, sender_name, body, attachment_url, attachment_name, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		msg := &model.Message{}
		err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.SenderID,
			&msg.SenderName,
			&msg.Body,
			&msg.AttachmentURL,
			&msg.AttachmentName,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
