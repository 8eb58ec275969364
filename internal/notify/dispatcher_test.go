package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sudooom.portal/internal/model"
)

// recordingSink 记录写入的通知，可注入失败
type recordingSink struct {
	mu       sync.Mutex
	written  []*model.Notification
	failOn   map[int64]error
	attempts int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{failOn: make(map[int64]error)}
}

func (s *recordingSink) Notify(ctx context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if err, ok := s.failOn[n.RecipientID]; ok {
		return err
	}
	s.written = append(s.written, n)
	return nil
}

func (s *recordingSink) writtenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.written)
}

func (s *recordingSink) attemptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for condition")
}

func TestDispatcher_WritesNotifications(t *testing.T) {
	sink := newRecordingSink()
	d := NewDispatcher(sink, Config{Workers: 2, BufferSize: 16})
	d.Start(context.Background())
	defer d.Stop()

	d.Enqueue(&model.Notification{ID: 1, RecipientID: 100, SenderName: "Alice", Body: "hi"})
	d.Enqueue(&model.Notification{ID: 2, RecipientID: 100, SenderName: "Alice", Body: "again"})

	waitFor(t, func() bool { return sink.writtenCount() == 2 })
}

func TestDispatcher_FailureIsSwallowed(t *testing.T) {
	sink := newRecordingSink()
	sink.failOn[200] = errors.New("redis down")

	d := NewDispatcher(sink, Config{Workers: 1, BufferSize: 16})
	d.Start(context.Background())
	defer d.Stop()

	// 失败的写入不会被重试，也不影响后续通知
	d.Enqueue(&model.Notification{ID: 1, RecipientID: 200, SenderName: "Alice", Body: "lost"})
	d.Enqueue(&model.Notification{ID: 2, RecipientID: 300, SenderName: "Alice", Body: "kept"})

	waitFor(t, func() bool { return sink.writtenCount() == 1 })
	waitFor(t, func() bool { return sink.attemptCount() == 2 })

	if sink.writtenCount() != 1 {
		t.Errorf("Expected exactly 1 written notification, got %d", sink.writtenCount())
	}
}

func TestDispatcher_StopDrainsQueue(t *testing.T) {
	sink := newRecordingSink()
	d := NewDispatcher(sink, Config{Workers: 1, BufferSize: 64})
	d.Start(context.Background())

	for i := 0; i < 20; i++ {
		d.Enqueue(&model.Notification{ID: int64(i), RecipientID: 100})
	}

	d.Stop()

	if got := sink.writtenCount(); got != 20 {
		t.Errorf("Expected Stop to drain all 20 notifications, got %d", got)
	}

	// 停止后入队被丢弃，不 panic
	d.Enqueue(&model.Notification{ID: 99, RecipientID: 100})
	if got := sink.writtenCount(); got != 20 {
		t.Errorf("Expected no writes after Stop, got %d", got)
	}
}

func TestDispatcher_EnqueueNeverBlocks(t *testing.T) {
	sink := newRecordingSink()
	d := NewDispatcher(sink, Config{Workers: 1, BufferSize: 1})

	// 未启动时入队直接丢弃
	done := make(chan struct{})
	go func() {
		d.Enqueue(&model.Notification{ID: 1, RecipientID: 100})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a stopped dispatcher")
	}
}
