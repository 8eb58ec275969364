package nats

import "sudooom.portal/pkg/snowflake"

// NATS Subject 常量定义
const (
	// SubjectConversationPrefix 会话消息事件 Subject 前缀
	// 完整格式: portal.conversation.{conversation_id}.messages
	SubjectConversationPrefix = "portal.conversation."
	SubjectConversationSuffix = ".messages"
)

// BuildConversationSubject 构建会话消息事件 Subject
func BuildConversationSubject(conversationID int64) string {
	return SubjectConversationPrefix + snowflake.Int64ToString(conversationID) + SubjectConversationSuffix
}
