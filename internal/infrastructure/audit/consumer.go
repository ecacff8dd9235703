package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
)

// NewMessageHandler 把MQ里的审计消息写入writer(通常是数据库)
//
// 无法解析的消息记录后丢弃(返回nil让消费者Ack)，否则会被反复重新入队；
// 写库失败返回错误，消费者Nack后重试
func NewMessageHandler(writer audit.Writer, log *zap.Logger) func([]byte) error {
	return func(body []byte) error {
		var msg Message
		if err := json.Unmarshal(body, &msg); err != nil {
			log.Warn("丢弃无法解析的审计消息", zap.Error(err), zap.ByteString("body", body))
			return nil
		}
		if msg.Module == "" || msg.Action == "" {
			log.Warn("丢弃不完整的审计消息", zap.String("entity_id", msg.EntityID))
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return writer.Write(ctx, msg.Entry())
	}
}
