package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// recordingWriter 记录写入的条目，可以阻塞或返回错误
type recordingWriter struct {
	mu      sync.Mutex
	entries []audit.Entry
	gate    chan struct{} // 非nil时每次Write等待一个信号
	err     error
}

func (w *recordingWriter) Write(ctx context.Context, e audit.Entry) error {
	if w.gate != nil {
		<-w.gate
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, e)
	return w.err
}

func (w *recordingWriter) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

func entry(action string) audit.Entry {
	return audit.Entry{Module: audit.ModuleOrder, Action: action, EntityID: "ORD-1001", PerformedBy: "admin"}
}

func TestAsyncSink_DeliversInOrder(t *testing.T) {
	w := &recordingWriter{}
	sink := NewAsyncSink(w, 16, zap.NewNop())
	sink.Start()

	for _, a := range []string{"create", "confirm", "dispatch"} {
		sink.LogAction(context.Background(), entry(a))
	}
	require.NoError(t, sink.Close(context.Background()))

	require.Len(t, w.entries, 3)
	assert.Equal(t, "create", w.entries[0].Action)
	assert.Equal(t, "dispatch", w.entries[2].Action)
	assert.False(t, w.entries[0].CreatedAt.IsZero(), "入队时补齐时间")
}

func TestAsyncSink_DropsWhenFull(t *testing.T) {
	w := &recordingWriter{gate: make(chan struct{})}
	sink := NewAsyncSink(w, 2, zap.NewNop())
	sink.Start()

	// 第一条被消费协程取走后阻塞在gate上，队列里还能放2条
	sink.LogAction(context.Background(), entry("a"))
	require.Eventually(t, func() bool { return len(sink.queue) == 0 }, time.Second, 5*time.Millisecond)
	sink.LogAction(context.Background(), entry("b"))
	sink.LogAction(context.Background(), entry("c"))

	done := make(chan struct{})
	go func() {
		sink.LogAction(context.Background(), entry("d")) // 队列满，直接丢弃
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("LogAction在队列满时阻塞")
	}

	close(w.gate)
	require.NoError(t, sink.Close(context.Background()))
	assert.Equal(t, 3, w.len())
}

func TestAsyncSink_WriterErrorDoesNotStopDrain(t *testing.T) {
	w := &recordingWriter{err: errors.New("db down")}
	sink := NewAsyncSink(w, 8, zap.NewNop())
	sink.Start()

	sink.LogAction(context.Background(), entry("a"))
	sink.LogAction(context.Background(), entry("b"))
	require.NoError(t, sink.Close(context.Background()))
	assert.Equal(t, 2, w.len())
}

func TestAsyncSink_CloseWithoutStartDrains(t *testing.T) {
	w := &recordingWriter{}
	sink := NewAsyncSink(w, 8, zap.NewNop())
	sink.LogAction(context.Background(), entry("a"))

	require.NoError(t, sink.Close(context.Background()))
	assert.Equal(t, 1, w.len())

	// 关闭后的条目被丢弃，且不会panic
	sink.LogAction(context.Background(), entry("late"))
	assert.Equal(t, 1, w.len())
	assert.NoError(t, sink.Close(context.Background()), "重复关闭")
}

func TestAsyncSink_CloseTimeout(t *testing.T) {
	w := &recordingWriter{gate: make(chan struct{})}
	defer close(w.gate)
	sink := NewAsyncSink(w, 8, zap.NewNop())
	sink.Start()
	sink.LogAction(context.Background(), entry("a"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, sink.Close(ctx), context.DeadlineExceeded)
}

type fakePublisher struct {
	mu    sync.Mutex
	keys  []string
	msgs  []Message
	err   error
	calls int
}

func (p *fakePublisher) Publish(ctx context.Context, key string, msg interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.msgs = append(p.msgs, msg.(Message))
	return nil
}

func TestMQWriter_RoutingKeyAndPayload(t *testing.T) {
	pub := &fakePublisher{}
	w := NewMQWriter(pub)

	e := entry("return")
	e.Details = map[string]any{"reason": "damaged"}
	require.NoError(t, w.Write(context.Background(), e))

	require.Len(t, pub.keys, 1)
	assert.Equal(t, "audit.order.return", pub.keys[0])
	assert.Equal(t, "damaged", pub.msgs[0].Details["reason"])
	assert.Equal(t, e, pub.msgs[0].Entry())
}

func TestMQWriter_OpensCircuit(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection refused")}
	w := NewMQWriter(pub)

	for i := 0; i < 5; i++ {
		err := w.Write(context.Background(), entry("a"))
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeMQError, apperrors.GetAppError(err).Code)
	}
	assert.Equal(t, circuitbreaker.StateOpen, w.State())

	err := w.Write(context.Background(), entry("a"))
	assert.ErrorIs(t, err, apperrors.ErrMQError)
	assert.Equal(t, 5, pub.calls, "熔断后不再调用Publish")
}

func TestLogWriter(t *testing.T) {
	w := NewLogWriter(zap.NewNop())
	assert.NoError(t, w.Write(context.Background(), entry("a")))
}

func TestMessageHandler(t *testing.T) {
	w := &recordingWriter{}
	handle := NewMessageHandler(w, zap.NewNop())

	body, err := json.Marshal(ToMessage(entry("return")))
	require.NoError(t, err)
	require.NoError(t, handle(body))
	require.Equal(t, 1, w.len())
	assert.Equal(t, "ORD-1001", w.entries[0].EntityID)

	assert.NoError(t, handle([]byte("not json")), "坏消息直接丢弃")
	assert.NoError(t, handle([]byte(`{"entity_id":"x"}`)))
	assert.Equal(t, 1, w.len())

	w.err = errors.New("db down")
	assert.Error(t, handle(body), "写库失败要重试")
}
