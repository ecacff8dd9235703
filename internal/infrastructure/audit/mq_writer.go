package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// Publisher 消息发布接口(pkg/mq.Publisher实现了它)
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// Message 审计消息体，由cmd/audit-consumer消费后写库
type Message struct {
	Module      string         `json:"module"`
	Action      string         `json:"action"`
	EntityID    string         `json:"entity_id"`
	PerformedBy string         `json:"performed_by"`
	Details     map[string]any `json:"details,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ToMessage 条目转消息
func ToMessage(e audit.Entry) Message {
	return Message{
		Module:      e.Module,
		Action:      e.Action,
		EntityID:    e.EntityID,
		PerformedBy: e.PerformedBy,
		Details:     e.Details,
		CreatedAt:   e.CreatedAt,
	}
}

// Entry 消息转回条目
func (m Message) Entry() audit.Entry {
	return audit.Entry{
		Module:      m.Module,
		Action:      m.Action,
		EntityID:    m.EntityID,
		PerformedBy: m.PerformedBy,
		Details:     m.Details,
		CreatedAt:   m.CreatedAt,
	}
}

// RoutingKey audit.<module>.<action>
func RoutingKey(e audit.Entry) string {
	return fmt.Sprintf("audit.%s.%s", e.Module, e.Action)
}

// MQWriter 通过RabbitMQ投递审计条目(audit.sink=mq)
// 教学要点：MQ不可用时熔断器打开，后续条目快速失败，不拖慢消费协程
type MQWriter struct {
	pub Publisher
	cb  *circuitbreaker.CircuitBreaker
}

// NewMQWriter 创建消息落地
func NewMQWriter(pub Publisher) *MQWriter {
	return &MQWriter{
		pub: pub,
		cb: circuitbreaker.NewCircuitBreaker("audit-mq", circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
		}),
	}
}

// Write 实现audit.Writer
func (w *MQWriter) Write(ctx context.Context, entry audit.Entry) error {
	err := w.cb.Execute(func() error {
		return w.pub.Publish(ctx, RoutingKey(entry), ToMessage(entry))
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, circuitbreaker.ErrOpenState) {
		return apperrors.WithDetail(apperrors.ErrMQError, "熔断中，跳过审计投递")
	}
	return &apperrors.AppError{Code: apperrors.ErrCodeMQError, Message: "审计投递失败", Err: err}
}

// State 熔断器状态
func (w *MQWriter) State() circuitbreaker.State {
	return w.cb.State()
}
