package inventory

import (
	"context"
	"iter"
)

// TransactionLog 库存流水查询服务
// 写入由StockRepository.Apply在同一事务内完成；这里提供独立追加入口和惰性查询。
type TransactionLog struct {
	repo      TransactionRepository
	batchSize int
}

// NewTransactionLog 创建流水服务
func NewTransactionLog(repo TransactionRepository) *TransactionLog {
	return &TransactionLog{repo: repo, batchSize: 100}
}

// Append 追加流水(只校验必填字段，其余错误均来自存储)
func (l *TransactionLog) Append(ctx context.Context, tx *Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	return l.repo.Append(ctx, tx)
}

// Query 按创建时间倒序惰性遍历满足条件的流水
// 内部按批(游标)拉取，调用方中途break不会多读；重新调用即从最新一条重新开始。
//
//	for tx, err := range log.Query(ctx, filter) {
//	    if err != nil { return err }
//	    ...
//	}
func (l *TransactionLog) Query(ctx context.Context, filter TransactionFilter) iter.Seq2[*Transaction, error] {
	return func(yield func(*Transaction, error) bool) {
		var cursor *Cursor
		for {
			batch, err := l.repo.Page(ctx, filter, cursor, l.batchSize)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, tx := range batch {
				if !yield(tx, nil) {
					return
				}
			}
			if len(batch) < l.batchSize {
				return
			}
			last := batch[len(batch)-1]
			cursor = &Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
		}
	}
}

// List 分页查询(给HTTP层使用)
func (l *TransactionLog) List(ctx context.Context, filter TransactionFilter, page, pageSize int) ([]*Transaction, int64, error) {
	return l.repo.List(ctx, filter, page, pageSize)
}
