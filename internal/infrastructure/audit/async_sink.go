// Package audit 审计条目的异步投递
//
// 业务代码调用AsyncSink.LogAction把条目放入有界队列后立即返回，
// 后台协程逐条交给Writer落地(日志、数据库或消息队列)。
// 队列满时丢弃并计数，落地失败只记录日志。
package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/pkg/metrics"
)

// AsyncSink 有界队列+单消费协程
type AsyncSink struct {
	writer audit.Writer
	queue  chan audit.Entry
	log    *zap.Logger

	mu     sync.RWMutex // 保护closed，避免向已关闭的通道发送
	closed bool

	startOnce sync.Once
	done      chan struct{}
}

var _ audit.Sink = (*AsyncSink)(nil)

// NewAsyncSink 创建异步审计投递，size为队列容量
func NewAsyncSink(writer audit.Writer, size int, log *zap.Logger) *AsyncSink {
	if size <= 0 {
		size = 1
	}
	return &AsyncSink{
		writer: writer,
		queue:  make(chan audit.Entry, size),
		log:    log,
		done:   make(chan struct{}),
	}
}

// LogAction 非阻塞入队
func (s *AsyncSink) LogAction(ctx context.Context, entry audit.Entry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		metrics.IncAudit("dropped")
		s.log.Warn("审计队列已关闭，丢弃条目",
			zap.String("module", entry.Module),
			zap.String("action", entry.Action),
			zap.String("entity_id", entry.EntityID))
		return
	}

	select {
	case s.queue <- entry:
		metrics.SetAuditQueueDepth(len(s.queue))
	default:
		metrics.IncAudit("dropped")
		s.log.Warn("审计队列已满，丢弃条目",
			zap.String("module", entry.Module),
			zap.String("action", entry.Action),
			zap.String("entity_id", entry.EntityID))
	}
}

// Start 启动后台消费协程，重复调用无效
func (s *AsyncSink) Start() {
	s.startOnce.Do(func() {
		go s.run()
	})
}

func (s *AsyncSink) run() {
	defer close(s.done)

	s.log.Info("审计消费协程启动", zap.Int("capacity", cap(s.queue)))
	for entry := range s.queue {
		s.write(entry)
		metrics.SetAuditQueueDepth(len(s.queue))
	}
	s.log.Info("审计消费协程退出")
}

func (s *AsyncSink) write(entry audit.Entry) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncAudit("error")
			s.log.Error("审计落地panic", zap.Any("panic", r))
		}
	}()

	// 落地与请求生命周期无关，不继承请求ctx
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.writer.Write(ctx, entry); err != nil {
		metrics.IncAudit("error")
		s.log.Error("审计落地失败",
			zap.String("module", entry.Module),
			zap.String("action", entry.Action),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err))
		return
	}
	metrics.IncAudit("ok")
}

// Close 停止接收新条目，等待队列排空或ctx到期
// 未调用Start时，剩余条目在这里同步落地
func (s *AsyncSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.Start()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		s.log.Warn("审计队列未排空即超时", zap.Int("remaining", len(s.queue)))
		return ctx.Err()
	}
}
