package service

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	portalRedis "sudooom.portal/internal/redis"
	"sudooom.portal/internal/model"
	"sudooom.portal/pkg/snowflake"
)

// NotificationService 收件箱通知服务（基于 Redis）
// 每个 recipient 一个 ZSET 索引加若干 HASH 详情，严格按 recipient 分区
type NotificationService struct {
	redisClient *redis.Client
	idGen       *snowflake.Node
	logger      *slog.Logger
}

// NewNotificationService 创建通知服务
func NewNotificationService(redisClient *redis.Client, idGen *snowflake.Node) *NotificationService {
	return &NotificationService{
		redisClient: redisClient,
		idGen:       idGen,
		logger:      slog.Default(),
	}
}

// Notify 在 recipient 的收件箱里追加一条通知
// 与触发它的消息写入相互独立，调用方决定失败如何处理
func (s *NotificationService) Notify(ctx context.Context, n *model.Notification) error {
	if n.ID == 0 {
		n.ID = s.idGen.Generate().Int64()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	itemKey := portalRedis.BuildNotificationKey(n.RecipientID, n.ID)
	idxKey := portalRedis.BuildInboxIndexKey(n.RecipientID)

	pipe := s.redisClient.Pipeline()
	pipe.HSet(ctx, itemKey,
		"id", n.ID,
		"sender_name", n.SenderName,
		"body", n.Body,
		"attachment_url", n.AttachmentURL,
		"attachment_name", n.AttachmentName,
		"created_at", n.CreatedAt.UnixMilli(),
	)
	pipe.ZAdd(ctx, idxKey, redis.Z{Score: float64(n.CreatedAt.UnixMilli()), Member: strconv.FormatInt(n.ID, 10)})
	_, err := pipe.Exec(ctx)

	return err
}

// List 按创建时间倒序返回 recipient 的待处理通知
func (s *NotificationService) List(ctx context.Context, recipientID int64, offset, limit int64) ([]*model.Notification, error) {
	idxKey := portalRedis.BuildInboxIndexKey(recipientID)

	members, err := s.redisClient.ZRevRange(ctx, idxKey, offset, offset+limit-1).Result()
	if err != nil {
		return nil, err
	}

	if len(members) == 0 {
		return []*model.Notification{}, nil
	}

	// Pipeline 批量获取通知详情
	pipe := s.redisClient.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(members))
	for i, m := range members {
		id := s.parseInt64(m)
		cmds[i] = pipe.HGetAll(ctx, portalRedis.BuildNotificationKey(recipientID, id))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	notifications := make([]*model.Notification, 0, len(members))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			// 详情已被撤销但索引残留：跳过
			continue
		}

		notifications = append(notifications, &model.Notification{
			ID:             s.parseInt64(data["id"]),
			RecipientID:    recipientID,
			SenderName:     data["sender_name"],
			Body:           data["body"],
			AttachmentURL:  data["attachment_url"],
			AttachmentName: data["attachment_name"],
			CreatedAt:      time.UnixMilli(s.parseInt64(data["created_at"])),
		})
	}

	return notifications, nil
}

// Dismiss 撤销一条通知
// 幂等：撤销不存在的通知什么也不做，不是错误
func (s *NotificationService) Dismiss(ctx context.Context, recipientID, notificationID int64) error {
	idxKey := portalRedis.BuildInboxIndexKey(recipientID)
	itemKey := portalRedis.BuildNotificationKey(recipientID, notificationID)

	pipe := s.redisClient.Pipeline()
	pipe.ZRem(ctx, idxKey, strconv.FormatInt(notificationID, 10))
	pipe.Del(ctx, itemKey)
	_, err := pipe.Exec(ctx)

	return err
}

// Count 获取 recipient 的待处理通知数
func (s *NotificationService) Count(ctx context.Context, recipientID int64) (int64, error) {
	idxKey := portalRedis.BuildInboxIndexKey(recipientID)
	return s.redisClient.ZCard(ctx, idxKey).Result()
}

func (s *NotificationService) parseInt64(str string) int64 {
	v, _ := strconv.ParseInt(str, 10, 64)
	return v
}
