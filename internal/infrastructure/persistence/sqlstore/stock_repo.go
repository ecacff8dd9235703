package sqlstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/smb-erp/internal/domain/inventory"
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// stockRepository 库存记录仓储(GORM)
type stockRepository struct {
	db *gorm.DB
}

// NewStockRepository 创建库存仓储
func NewStockRepository(db *gorm.DB) inventory.StockRepository {
	return &stockRepository{db: db}
}

// Apply 单键原子变更
//
// 教学要点：完整的变更流程在一个事务内
//  1. SELECT ... FOR UPDATE 锁定记录(不存在且允许创建时准备新记录)
//  2. 在领域实体上执行变更和校验
//  3. UPDATE ... WHERE id=? AND version=? 乐观锁兜底
//     (RowsAffected=0说明被其它事务改过，返回ErrConcurrentUpdate由台账重试)
//  4. 追加流水
//
// 并发惰性创建时第二个INSERT撞唯一索引，同样返回ErrConcurrentUpdate，重试时即可加载到记录。
// 数据库检测到死锁或序列化失败时事务已被回滚，也按ErrConcurrentUpdate交给台账重试
func (r *stockRepository) Apply(ctx context.Context, key inventory.Key, create bool, mutate inventory.Mutation) (*inventory.StockRecord, error) {
	var result *inventory.StockRecord

	err := getDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var model StockRecordModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ? AND location_id = ?", key.ProductID, key.LocationID).
			First(&model).Error

		isNew := false
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if !create {
				return inventory.ErrStockNotFound
			}
			isNew = true
		case err != nil:
			return storeError(err, "锁定库存记录失败")
		}

		var rec *inventory.StockRecord
		if isNew {
			rec = inventory.NewStockRecord(key)
		} else {
			rec = toStockEntity(&model)
		}

		entry, err := mutate(rec)
		if err != nil {
			return err
		}
		if err := rec.Validate(); err != nil {
			return err
		}
		if err := entry.Validate(); err != nil {
			return err
		}

		now := time.Now()
		if isNew {
			rec.Version = 1
			rec.CreatedAt = now
			rec.UpdatedAt = now
			m := toStockModel(rec)
			if err := tx.Create(m).Error; err != nil {
				if isDuplicateError(err) {
					return inventory.ErrConcurrentUpdate
				}
				return storeError(err, "创建库存记录失败")
			}
			rec.ID = m.ID
		} else {
			res := tx.Model(&StockRecordModel{}).
				Where("id = ? AND version = ?", model.ID, model.Version).
				Updates(map[string]interface{}{
					"available":  rec.Available,
					"reserved":   rec.Reserved,
					"dispatched": rec.Dispatched,
					"version":    model.Version + 1,
					"updated_at": now,
				})
			if res.Error != nil {
				return storeError(res.Error, "更新库存记录失败")
			}
			if res.RowsAffected == 0 {
				return inventory.ErrConcurrentUpdate
			}
			rec.Version = model.Version + 1
			rec.UpdatedAt = now
		}

		txModel := toTransactionModel(entry)
		if err := tx.Create(txModel).Error; err != nil {
			return storeError(err, "写入库存流水失败")
		}
		entry.ID = txModel.ID
		entry.CreatedAt = txModel.CreatedAt

		result = rec
		return nil
	})
	if err != nil {
		// 提交阶段的冲突不经过上面的分支
		if !apperrors.IsAppError(err) && isConflictError(err) {
			return nil, inventory.ErrConcurrentUpdate
		}
		return nil, err
	}
	return result, nil
}

// storeError 并发冲突转成ErrConcurrentUpdate，其它包装为数据库错误
func storeError(err error, msg string) error {
	if isConflictError(err) {
		return inventory.ErrConcurrentUpdate
	}
	return apperrors.WrapDatabase(err, msg)
}

// Get 查询库存记录
func (r *stockRepository) Get(ctx context.Context, key inventory.Key) (*inventory.StockRecord, error) {
	var model StockRecordModel
	err := getDB(ctx, r.db).
		Where("product_id = ? AND location_id = ?", key.ProductID, key.LocationID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrStockNotFound
		}
		return nil, apperrors.WrapDatabase(err, "查询库存记录失败")
	}
	return toStockEntity(&model), nil
}

// List 分页查询
func (r *stockRepository) List(ctx context.Context, filter inventory.StockFilter, page, pageSize int) ([]*inventory.StockRecord, int64, error) {
	query := getDB(ctx, r.db).Model(&StockRecordModel{})
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.LocationID != 0 {
		query = query.Where("location_id = ?", filter.LocationID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.WrapDatabase(err, "查询库存总数失败")
	}

	var models []StockRecordModel
	offset, limit := pageOffset(page, pageSize)
	err := query.Order("product_id ASC").Order("location_id ASC").
		Limit(limit).Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.WrapDatabase(err, "查询库存列表失败")
	}

	records := make([]*inventory.StockRecord, len(models))
	for i := range models {
		records[i] = toStockEntity(&models[i])
	}
	return records, total, nil
}

// Delete 删除库存记录(物理删除，流水保留)
func (r *stockRepository) Delete(ctx context.Context, key inventory.Key) error {
	res := getDB(ctx, r.db).
		Where("product_id = ? AND location_id = ?", key.ProductID, key.LocationID).
		Delete(&StockRecordModel{})
	if res.Error != nil {
		return apperrors.WrapDatabase(res.Error, "删除库存记录失败")
	}
	if res.RowsAffected == 0 {
		return inventory.ErrStockNotFound
	}
	return nil
}

func toStockModel(rec *inventory.StockRecord) *StockRecordModel {
	return &StockRecordModel{
		ID:         rec.ID,
		ProductID:  rec.ProductID,
		LocationID: rec.LocationID,
		Available:  rec.Available,
		Reserved:   rec.Reserved,
		Dispatched: rec.Dispatched,
		Version:    rec.Version,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
}

func toStockEntity(m *StockRecordModel) *inventory.StockRecord {
	return &inventory.StockRecord{
		ID:         m.ID,
		ProductID:  m.ProductID,
		LocationID: m.LocationID,
		Available:  m.Available,
		Reserved:   m.Reserved,
		Dispatched: m.Dispatched,
		Version:    m.Version,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
