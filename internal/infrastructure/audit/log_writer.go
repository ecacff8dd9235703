package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
)

// LogWriter 把审计条目写成一条结构化日志(audit.sink=log)
type LogWriter struct {
	log *zap.Logger
}

// NewLogWriter 创建日志落地
func NewLogWriter(log *zap.Logger) *LogWriter {
	return &LogWriter{log: log.Named("audit")}
}

// Write 实现audit.Writer
func (w *LogWriter) Write(ctx context.Context, entry audit.Entry) error {
	w.log.Info("audit",
		zap.String("module", entry.Module),
		zap.String("action", entry.Action),
		zap.String("entity_id", entry.EntityID),
		zap.String("performed_by", entry.PerformedBy),
		zap.Any("details", entry.Details),
		zap.Time("created_at", entry.CreatedAt),
	)
	return nil
}
