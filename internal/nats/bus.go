package nats

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"sudooom.portal/internal/feed"
	"sudooom.portal/internal/model"
)

// Bus 基于 NATS 的会话消息事件总线
// 同一进程内的订阅者和其他服务实例都通过它收到新消息事件
type Bus struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewBus 创建事件总线
func NewBus(nc *nats.Conn) *Bus {
	return &Bus{
		nc:     nc,
		logger: slog.Default(),
	}
}

// PublishMessage 发布一条已入库的消息事件
func (b *Bus) PublishMessage(msg *model.Message) error {
	subject := BuildConversationSubject(msg.ConversationID)
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("Failed to marshal message event", "error", err)
		return err
	}

	if err := b.nc.Publish(subject, data); err != nil {
		b.logger.Error("Failed to publish message event",
			"conversationId", msg.ConversationID,
			"subject", subject,
			"error", err)
		return err
	}

	b.logger.Debug("Published message event",
		"conversationId", msg.ConversationID,
		"messageId", msg.ID,
		"subject", subject)
	return nil
}

// Subscribe 订阅一个 Subject 的事件
// 返回的句柄由调用方负责释放
func (b *Bus) Subscribe(subject string, handler func(data []byte)) (feed.Unsubscriber, error) {
	sub, err := b.nc.Subscribe(subject, func(m *nats.Msg) {
		handler(m.Data)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}
