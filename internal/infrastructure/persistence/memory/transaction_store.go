package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xiebiao/smb-erp/internal/domain/inventory"
)

// TransactionStore 库存流水内存仓储(只追加)
// 切片按(CreatedAt, ID)升序，倒序查询从尾部向前扫描
type TransactionStore struct {
	mu     sync.RWMutex
	items  []*inventory.Transaction
	nextID uint
}

// NewTransactionStore 创建流水仓储
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{}
}

var _ inventory.TransactionRepository = (*TransactionStore)(nil)

// Append 追加流水
func (s *TransactionStore) Append(ctx context.Context, tx *inventory.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.Validate(); err != nil {
		return err
	}
	s.append(tx)
	return nil
}

// append 分配ID并保证时间戳单调(墙上时钟回拨时沿用上一条的时间)
func (s *TransactionStore) append(tx *inventory.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	tx.ID = s.nextID
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	if n := len(s.items); n > 0 && tx.CreatedAt.Before(s.items[n-1].CreatedAt) {
		tx.CreatedAt = s.items[n-1].CreatedAt
	}

	stored := *tx
	s.items = append(s.items, &stored)
}

// Page 倒序游标分页
func (s *TransactionStore) Page(ctx context.Context, filter inventory.TransactionFilter, after *inventory.Cursor, limit int) ([]*inventory.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*inventory.Transaction, 0, limit)
	for i := len(s.items) - 1; i >= 0 && len(result) < limit; i-- {
		t := s.items[i]
		if !after.Before(t) || !filter.Match(t) {
			continue
		}
		c := *t
		result = append(result, &c)
	}
	return result, nil
}

// List 倒序页码分页
func (s *TransactionStore) List(ctx context.Context, filter inventory.TransactionFilter, page, pageSize int) ([]*inventory.Transaction, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*inventory.Transaction
	for i := len(s.items) - 1; i >= 0; i-- {
		if filter.Match(s.items[i]) {
			c := *s.items[i]
			matched = append(matched, &c)
		}
	}
	return paginate(matched, page, pageSize), int64(len(matched)), nil
}

// Len 流水总条数
func (s *TransactionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
