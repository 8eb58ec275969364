package redis

import "fmt"

const (
	// InboxIndexKeyPrefix 收件箱索引 Key 前缀（ZSET，score 为创建时间毫秒）
	InboxIndexKeyPrefix = "portal:inbox:"

	// NotificationKeyPrefix 通知详情 Key 前缀（HASH，按 recipient 分区）
	NotificationKeyPrefix = "portal:notification:"
)

// BuildInboxIndexKey 构建收件箱索引 Key
// Key: portal:inbox:{recipientId}
func BuildInboxIndexKey(recipientID int64) string {
	return fmt.Sprintf("%s%d", InboxIndexKeyPrefix, recipientID)
}

// BuildNotificationKey 构建通知详情 Key
// Key: portal:notification:{recipientId}:{notificationId}
func BuildNotificationKey(recipientID, notificationID int64) string {
	return fmt.Sprintf("%s%d:%d", NotificationKeyPrefix, recipientID, notificationID)
}
