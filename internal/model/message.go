package model

import (
	"errors"
	"path"
	"strings"
	"time"
)

// AttachmentKind 附件类别
// 由文件名后缀在展示时推导，不单独持久化
type AttachmentKind string

const (
	AttachmentKindImage       AttachmentKind = "image"
	AttachmentKindPDF         AttachmentKind = "pdf"
	AttachmentKindDocument    AttachmentKind = "document"
	AttachmentKindSpreadsheet AttachmentKind = "spreadsheet"
	AttachmentKindGeneric     AttachmentKind = "attachment"
)

// ErrEmptyMessage 消息既没有正文也没有附件
var ErrEmptyMessage = errors.New("message has neither body nor attachment")

// Message 消息实体
// 写入后不可变，不支持更新和删除；
// 同一会话内按 (created_at, id) 全序排列
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	Body           string    `json:"body,omitempty"`
	AttachmentURL  string    `json:"attachment_url,omitempty"`
	AttachmentName string    `json:"attachment_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Validate 校验消息内容
// 正文和附件可以同时存在，但不能同时缺失
func (m *Message) Validate() error {
	if strings.TrimSpace(m.Body) == "" && m.AttachmentURL == "" {
		return ErrEmptyMessage
	}
	return nil
}

// HasAttachment 判断消息是否携带附件
func (m *Message) HasAttachment() bool {
	return m.AttachmentURL != ""
}

// AttachmentKind 推导消息附件的类别
func (m *Message) AttachmentKind() AttachmentKind {
	if !m.HasAttachment() {
		return ""
	}
	name := m.AttachmentName
	if name == "" {
		name = m.AttachmentURL
	}
	return KindForName(name)
}

// KindForName 根据文件名后缀推导附件类别
// 未知后缀归类为通用附件
func KindForName(name string) AttachmentKind {
	switch strings.ToLower(path.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp":
		return AttachmentKindImage
	case ".pdf":
		return AttachmentKindPDF
	case ".doc", ".docx", ".odt", ".txt", ".rtf":
		return AttachmentKindDocument
	case ".xls", ".xlsx", ".csv", ".ods":
		return AttachmentKindSpreadsheet
	default:
		return AttachmentKindGeneric
	}
}
