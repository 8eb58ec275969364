package blob

import (
	"context"
	"io"
	"sync"
)

// State 上传状态
type State string

const (
	StateUploading State = "uploading"
	StateFailed    State = "failed"
	StateComplete  State = "complete"
)

// Store 附件对象存储
// 上传异步进行，只有进入 complete 状态后才能拿到可取回的 URL
type Store interface {
	Upload(ctx context.Context, name string, r io.Reader) (*Upload, error)
}

// Upload 一次上传任务
// 状态经过 uploading -> failed | complete，终态只会出现一次
type Upload struct {
	Name string // 原始文件名
	Key  string // 存储对象 Key

	mu     sync.Mutex
	state  State
	url    string
	err    error
	events chan State
	done   chan struct{}
}

// NewUpload 创建处于 uploading 状态的上传任务
func NewUpload(name, key string) *Upload {
	return &Upload{
		Name:   name,
		Key:    key,
		state:  StateUploading,
		events: make(chan State, 2),
		done:   make(chan struct{}),
	}
}

// State 读取当前状态
func (u *Upload) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Events 上传进度事件
// 至多发出一个终态事件后关闭
func (u *Upload) Events() <-chan State {
	return u.events
}

// Wait 阻塞直到上传结束或 ctx 取消
// 成功时返回对象的取回 URL
func (u *Upload) Wait(ctx context.Context) (string, error) {
	select {
	case <-u.done:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state == StateFailed {
		return "", u.err
	}
	return u.url, nil
}

// Complete 标记上传成功（由 Store 实现调用）
func (u *Upload) Complete(url string) {
	u.mu.Lock()
	u.state = StateComplete
	u.url = url
	u.mu.Unlock()

	u.events <- StateComplete
	close(u.events)
	close(u.done)
}

// Fail 标记上传失败（由 Store 实现调用）
func (u *Upload) Fail(err error) {
	u.mu.Lock()
	u.state = StateFailed
	u.err = err
	u.mu.Unlock()

	u.events <- StateFailed
	close(u.events)
	close(u.done)
}
