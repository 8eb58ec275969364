package model

import "time"

// Notification 收件箱通知
// 内容是触发消息的副本而非引用；归属于唯一的 recipient，
// 由 recipient 显式撤销删除，否则一直保留
type Notification struct {
	ID             int64     `json:"id"`
	RecipientID    int64     `json:"recipient_id"`
	SenderName     string    `json:"sender_name"`
	Body           string    `json:"body,omitempty"`
	AttachmentURL  string    `json:"attachment_url,omitempty"`
	AttachmentName string    `json:"attachment_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
