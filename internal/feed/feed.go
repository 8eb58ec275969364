package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"sudooom.portal/internal/model"
)

// Unsubscriber 取消一次事件订阅
type Unsubscriber interface {
	Unsubscribe() error
}

// Bus 会话消息事件总线
// 生产环境由 NATS 实现
type Bus interface {
	Subscribe(subject string, handler func(data []byte)) (Unsubscriber, error)
}

// MessageLister 会话消息日志读取
type MessageLister interface {
	ListByConversation(ctx context.Context, conversationID int64) ([]*model.Message, error)
}

// SubjectFunc 由会话 ID 构建事件 Subject
type SubjectFunc func(conversationID int64) string

// Hub 实时消息源
// 每个订阅者拿到自己的 Subscription 句柄，互不影响
type Hub struct {
	bus      Bus
	messages MessageLister
	subject  SubjectFunc
	logger   *slog.Logger
}

// NewHub 创建实时消息源
func NewHub(bus Bus, messages MessageLister, subject SubjectFunc) *Hub {
	return &Hub{
		bus:      bus,
		messages: messages,
		subject:  subject,
		logger:   slog.Default(),
	}
}

// Subscribe 订阅一个会话的实时消息流
// 先投递订阅时刻的完整日志，再按到达顺序投递后续追加的消息；
// 按消息 ID 去重，Close 之前不丢消息。
// 订阅失败（总线或历史加载出错）直接返回错误，由调用方重试
func (h *Hub) Subscribe(ctx context.Context, conversationID int64) (*Subscription, error) {
	s := &Subscription{
		conversationID: conversationID,
		out:            make(chan *model.Message),
		wake:           make(chan struct{}, 1),
		done:           make(chan struct{}),
		logger:         h.logger,
	}

	// 先挂事件订阅再读历史，订阅边界上的消息
	// 要么出现在历史里，要么进等待队列，不会漏
	unsub, err := h.bus.Subscribe(h.subject(conversationID), s.onEvent)
	if err != nil {
		return nil, err
	}
	s.unsub = unsub

	history, err := h.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		_ = unsub.Unsubscribe()
		return nil, err
	}

	s.seen = make(map[int64]struct{}, len(history))
	for _, msg := range history {
		s.seen[msg.ID] = struct{}{}
	}

	go s.pump(history)

	return s, nil
}

// Subscription 一个订阅者持有的订阅句柄
// 显式 Close 释放底层事件订阅；没有全局注册表
type Subscription struct {
	conversationID int64

	out  chan *model.Message
	wake chan struct{}
	done chan struct{}

	mu      sync.Mutex
	pending []*model.Message
	seen    map[int64]struct{}

	unsub     Unsubscriber
	closeOnce sync.Once
	logger    *slog.Logger
}

// Messages 订阅到的消息流
// 历史消息在前，实时消息在后；Close 后通道关闭
func (s *Subscription) Messages() <-chan *model.Message {
	return s.out
}

// Close 结束订阅并释放底层事件订阅
// 对其他订阅者没有影响；重复调用是无害的
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		if s.unsub != nil {
			if err := s.unsub.Unsubscribe(); err != nil {
				s.logger.Warn("Failed to unsubscribe from bus",
					"conversationId", s.conversationID,
					"error", err)
			}
		}
		close(s.done)
	})
}

// onEvent 总线事件回调：解析消息并进入等待队列
func (s *Subscription) onEvent(data []byte) {
	var msg model.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logger.Error("Failed to unmarshal feed event",
			"conversationId", s.conversationID,
			"error", err)
		return
	}

	s.mu.Lock()
	s.pending = append(s.pending, &msg)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pump 先投递历史快照，再持续投递实时消息
func (s *Subscription) pump(history []*model.Message) {
	defer close(s.out)

	for _, msg := range history {
		select {
		case s.out <- msg:
		case <-s.done:
			return
		}
	}

	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			msg := s.next()
			if msg == nil {
				break
			}
			select {
			case s.out <- msg:
			case <-s.done:
				return
			}
		}
	}
}

// next 取下一条未投递的实时消息，去掉与历史重叠的部分
func (s *Subscription) next() *model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.pending) > 0 {
		msg := s.pending[0]
		s.pending = s.pending[1:]
		if _, dup := s.seen[msg.ID]; dup {
			continue
		}
		s.seen[msg.ID] = struct{}{}
		return msg
	}
	return nil
}
