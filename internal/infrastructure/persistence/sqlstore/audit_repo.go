package sqlstore

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// AuditRepository 审计日志落库(audit.sink=db)
type AuditRepository struct {
	db *gorm.DB
}

// NewAuditRepository 创建审计仓储
func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

var _ audit.Writer = (*AuditRepository)(nil)

// Write 写入一条审计日志，详情序列化为JSON
func (r *AuditRepository) Write(ctx context.Context, entry audit.Entry) error {
	details := "{}"
	if len(entry.Details) > 0 {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return apperrors.Wrap(err, "序列化审计详情失败")
		}
		details = string(b)
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	model := &AuditLogModel{
		Module:      entry.Module,
		Action:      entry.Action,
		EntityID:    entry.EntityID,
		PerformedBy: entry.PerformedBy,
		Details:     details,
		CreatedAt:   createdAt,
	}
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.WrapDatabase(err, "写入审计日志失败")
	}
	return nil
}
