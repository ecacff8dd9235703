package sqlstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/smb-erp/internal/domain/inventory"
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// transactionRepository 库存流水仓储(GORM，只追加)
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository 创建流水仓储
func NewTransactionRepository(db *gorm.DB) inventory.TransactionRepository {
	return &transactionRepository{db: db}
}

// Append 追加流水
func (r *transactionRepository) Append(ctx context.Context, entry *inventory.Transaction) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	m := toTransactionModel(entry)
	if err := getDB(ctx, r.db).Create(m).Error; err != nil {
		return apperrors.WrapDatabase(err, "写入库存流水失败")
	}
	entry.ID = m.ID
	entry.CreatedAt = m.CreatedAt
	return nil
}

// Page 倒序游标分页
// 教学要点:
// 1. 键集分页(keyset)：WHERE (created_at, id) < (?, ?)，不用OFFSET，深翻页也走索引
// 2. 展开写法兼容MySQL和PostgreSQL
func (r *transactionRepository) Page(ctx context.Context, filter inventory.TransactionFilter, after *inventory.Cursor, limit int) ([]*inventory.Transaction, error) {
	query := applyTxFilter(getDB(ctx, r.db).Model(&TransactionModel{}), filter)
	if after != nil {
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))", after.CreatedAt, after.CreatedAt, after.ID)
	}

	var models []TransactionModel
	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&models).Error
	if err != nil {
		return nil, apperrors.WrapDatabase(err, "查询库存流水失败")
	}
	return toTransactionEntities(models), nil
}

// List 倒序页码分页
func (r *transactionRepository) List(ctx context.Context, filter inventory.TransactionFilter, page, pageSize int) ([]*inventory.Transaction, int64, error) {
	query := applyTxFilter(getDB(ctx, r.db).Model(&TransactionModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.WrapDatabase(err, "查询流水总数失败")
	}

	var models []TransactionModel
	offset, limit := pageOffset(page, pageSize)
	err := query.Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.WrapDatabase(err, "查询库存流水失败")
	}
	return toTransactionEntities(models), total, nil
}

func applyTxFilter(q *gorm.DB, f inventory.TransactionFilter) *gorm.DB {
	if f.ProductID != 0 {
		q = q.Where("product_id = ?", f.ProductID)
	}
	if f.LocationID != 0 {
		q = q.Where("location_id = ?", f.LocationID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", string(f.Type))
	}
	if f.Reference != "" {
		q = q.Where("reference = ?", f.Reference)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at < ?", f.To)
	}
	return q
}

func toTransactionModel(t *inventory.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:              t.ID,
		ProductID:       t.ProductID,
		LocationID:      t.LocationID,
		Type:            string(t.Type),
		Quantity:        t.Quantity,
		Reference:       t.Reference,
		Reason:          t.Reason,
		Actor:           t.Actor,
		AvailableAfter:  t.AvailableAfter,
		ReservedAfter:   t.ReservedAfter,
		DispatchedAfter: t.DispatchedAfter,
		CreatedAt:       t.CreatedAt,
	}
}

func toTransactionEntities(models []TransactionModel) []*inventory.Transaction {
	result := make([]*inventory.Transaction, len(models))
	for i, m := range models {
		result[i] = &inventory.Transaction{
			ID:              m.ID,
			ProductID:       m.ProductID,
			LocationID:      m.LocationID,
			Type:            inventory.TransactionType(m.Type),
			Quantity:        m.Quantity,
			Reference:       m.Reference,
			Reason:          m.Reason,
			Actor:           m.Actor,
			AvailableAfter:  m.AvailableAfter,
			ReservedAfter:   m.ReservedAfter,
			DispatchedAfter: m.DispatchedAfter,
			CreatedAt:       m.CreatedAt,
		}
	}
	return result
}
