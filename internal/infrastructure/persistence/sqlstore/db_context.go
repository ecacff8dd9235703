package sqlstore

import (
	"context"

	"gorm.io/gorm"
)

// getDB 绑定请求context的DB会话
// 教学要点:仓储内部的Transaction遇到外层事务时由GORM自动退化为Savepoint
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx)
}
