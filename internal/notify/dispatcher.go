package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"sudooom.portal/internal/model"
)

// Sink 通知的落地写入
type Sink interface {
	Notify(ctx context.Context, n *model.Notification) error
}

// Config Worker Pool 配置
type Config struct {
	Workers    int           // Worker 数量
	BufferSize int           // 待写通知缓冲区大小
	Timeout    time.Duration // 单条通知写入超时
}

// Dispatcher 通知分发器
// 通知是 best-effort 副通道：入队永不阻塞发送主流程，
// 写入失败只记录日志，不回滚也不重试已经成功的消息
type Dispatcher struct {
	sink       Sink
	logger     *slog.Logger
	config     Config
	queue      chan *model.Notification
	wg         sync.WaitGroup
	cancelFunc context.CancelFunc

	mu      sync.Mutex
	stopped bool
}

// NewDispatcher 创建通知分发器
func NewDispatcher(sink Sink, config Config) *Dispatcher {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1024
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	return &Dispatcher{
		sink:   sink,
		logger: slog.Default(),
		config: config,
	}
}

// Start 启动 Worker Pool
func (d *Dispatcher) Start(ctx context.Context) {
	d.queue = make(chan *model.Notification, d.config.BufferSize)

	workerCtx, cancel := context.WithCancel(ctx)
	d.cancelFunc = cancel

	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go d.worker(workerCtx)
	}

	d.logger.Info("Notification dispatcher started",
		"workers", d.config.Workers,
		"bufferSize", d.config.BufferSize)
}

// Enqueue 提交一条通知
// 分发器已停止或缓冲区满时丢弃并告警，绝不阻塞调用方
func (d *Dispatcher) Enqueue(n *model.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || d.queue == nil {
		d.logger.Warn("Dispatcher not running, dropping notification",
			"recipientId", n.RecipientID)
		return
	}

	select {
	case d.queue <- n:
	default:
		d.logger.Warn("Notification buffer full, dropping notification",
			"recipientId", n.RecipientID,
			"bufferSize", d.config.BufferSize)
	}
}

// worker 工作协程：排空队列，失败只记录
func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for n := range d.queue {
		writeCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
		err := d.sink.Notify(writeCtx, n)
		cancel()

		if err != nil {
			// 消息投递是主保证，通知只是提示；这里吞掉错误
			d.logger.Error("Failed to write notification",
				"recipientId", n.RecipientID,
				"notificationId", n.ID,
				"error", err)
			continue
		}

		d.logger.Debug("Notification written",
			"recipientId", n.RecipientID,
			"notificationId", n.ID)
	}
}

// Stop 停止分发器并排空已入队的通知
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	queue := d.queue
	d.mu.Unlock()

	if queue != nil {
		close(queue)
	}
	d.wg.Wait()

	if d.cancelFunc != nil {
		d.cancelFunc()
	}

	d.logger.Info("Notification dispatcher stopped")
}
