package service

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"sudooom.portal/internal/model"
	portalRedis "sudooom.portal/internal/redis"
	"sudooom.portal/pkg/snowflake"
)

// 注意：这些测试需要一个运行中的 Redis 实例
// 如果没有 Redis，测试将被跳过

func getTestRedisClient(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // 使用测试专用数据库
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("跳过测试：无法连接 Redis: %v", err)
	}

	// 清理测试数据库
	client.FlushDB(ctx)

	return client
}

func newTestNotificationService(t *testing.T) (*NotificationService, *redis.Client) {
	client := getTestRedisClient(t)
	node, _ := snowflake.NewNode(1)
	return NewNotificationService(client, node), client
}

func TestNotificationService_Notify(t *testing.T) {
	svc, client := newTestNotificationService(t)
	defer client.Close()
	ctx := context.Background()

	n := &model.Notification{
		RecipientID: 2001,
		SenderName:  "Alice",
		Body:        "hi",
	}
	if err := svc.Notify(ctx, n); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if n.ID == 0 {
		t.Fatal("Expected assigned notification id")
	}

	// 索引和详情都已写入
	idxKey := portalRedis.BuildInboxIndexKey(2001)
	members, err := client.ZRange(ctx, idxKey, 0, -1).Result()
	if err != nil {
		t.Fatalf("Failed to read index: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("Expected 1 member in inbox index, got %d", len(members))
	}

	itemKey := portalRedis.BuildNotificationKey(2001, n.ID)
	body, err := client.HGet(ctx, itemKey, "body").Result()
	if err != nil {
		t.Fatalf("Failed to read notification hash: %v", err)
	}
	if body != "hi" {
		t.Errorf("Expected body 'hi', got %q", body)
	}
}

func TestNotificationService_List(t *testing.T) {
	svc, client := newTestNotificationService(t)
	defer client.Close()
	ctx := context.Background()

	for _, body := range []string{"first", "second", "third"} {
		err := svc.Notify(ctx, &model.Notification{
			RecipientID: 2001,
			SenderName:  "Alice",
			Body:        body,
			CreatedAt:   time.Now(),
		})
		if err != nil {
			t.Fatalf("Notify failed: %v", err)
		}
		time.Sleep(2 * time.Millisecond) // 保证 score 单调
	}

	// 其他 recipient 的收件箱不可见
	err := svc.Notify(ctx, &model.Notification{RecipientID: 9999, SenderName: "Eve", Body: "other"})
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	list, err := svc.List(ctx, 2001, 0, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 notifications, got %d", len(list))
	}

	// 倒序：最新在前
	if list[0].Body != "third" || list[2].Body != "first" {
		t.Errorf("Expected newest-first ordering, got %q ... %q", list[0].Body, list[2].Body)
	}
	for _, n := range list {
		if n.RecipientID != 2001 {
			t.Errorf("Expected recipient 2001, got %d", n.RecipientID)
		}
	}
}

func TestNotificationService_Dismiss(t *testing.T) {
	svc, client := newTestNotificationService(t)
	defer client.Close()
	ctx := context.Background()

	n := &model.Notification{RecipientID: 2001, SenderName: "Alice", Body: "hi"}
	if err := svc.Notify(ctx, n); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	if err := svc.Dismiss(ctx, 2001, n.ID); err != nil {
		t.Fatalf("Dismiss failed: %v", err)
	}

	list, err := svc.List(ctx, 2001, 0, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected empty inbox after dismiss, got %d", len(list))
	}

	count, err := svc.Count(ctx, 2001)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected count 0 after dismiss, got %d", count)
	}
}

func TestNotificationService_Dismiss_Idempotent(t *testing.T) {
	svc, client := newTestNotificationService(t)
	defer client.Close()
	ctx := context.Background()

	n := &model.Notification{RecipientID: 2001, SenderName: "Alice", Body: "hi"}
	if err := svc.Notify(ctx, n); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	// 撤销不存在的通知：无报错，收件箱不变
	if err := svc.Dismiss(ctx, 2001, 424242); err != nil {
		t.Fatalf("Dismiss of unknown id failed: %v", err)
	}

	list, err := svc.List(ctx, 2001, 0, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("Expected inbox unchanged, got %d notifications", len(list))
	}

	// 重复撤销同一条也是无害的
	if err := svc.Dismiss(ctx, 2001, n.ID); err != nil {
		t.Fatalf("Dismiss failed: %v", err)
	}
	if err := svc.Dismiss(ctx, 2001, n.ID); err != nil {
		t.Fatalf("Second dismiss failed: %v", err)
	}
}

func TestNotificationService_Count(t *testing.T) {
	svc, client := newTestNotificationService(t)
	defer client.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := svc.Notify(ctx, &model.Notification{RecipientID: 2001, SenderName: "Alice", Body: "n"})
		if err != nil {
			t.Fatalf("Notify failed: %v", err)
		}
	}

	count, err := svc.Count(ctx, 2001)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected count 5, got %d", count)
	}
}
