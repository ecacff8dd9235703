// Package memory 提供仓储接口的内存实现
//
// 用途：
//  1. database.driver=memory 时的单机部署(演示、本地开发)
//  2. 领域层和应用层的单元测试
//
// 库存记录按(商品,库位)放在并发map中，每个条目一把锁；
// 写记录和追加流水在条目锁内完成，对单键来说是原子的。
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xiebiao/smb-erp/internal/domain/inventory"
)

// StockStore 库存记录内存仓储
type StockStore struct {
	entries sync.Map // inventory.Key → *stockEntry
	log     *TransactionStore

	idMu   sync.Mutex
	nextID uint
}

type stockEntry struct {
	mu  sync.Mutex
	rec *inventory.StockRecord // nil表示尚未持久化(或已删除)
}

// NewStockStore 创建库存仓储，流水写入log
func NewStockStore(log *TransactionStore) *StockStore {
	return &StockStore{log: log}
}

var _ inventory.StockRepository = (*StockStore)(nil)

// Apply 在条目锁内执行：复制→变更→校验→落库→追加流水
func (s *StockStore) Apply(ctx context.Context, key inventory.Key, create bool, mutate inventory.Mutation) (*inventory.StockRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e := s.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	var next *inventory.StockRecord
	isNew := e.rec == nil
	if isNew {
		if !create {
			return nil, inventory.ErrStockNotFound
		}
		next = inventory.NewStockRecord(key)
	} else {
		next = e.rec.Clone()
	}

	tx, err := mutate(next)
	if err != nil {
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	if isNew {
		next.ID = s.allocID()
		next.CreatedAt = now
	}
	next.Version++
	next.UpdatedAt = now

	e.rec = next
	s.log.append(tx)

	return next.Clone(), nil
}

// Get 查询库存记录
func (s *StockStore) Get(ctx context.Context, key inventory.Key) (*inventory.StockRecord, error) {
	v, ok := s.entries.Load(key)
	if !ok {
		return nil, inventory.ErrStockNotFound
	}
	e := v.(*stockEntry)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rec == nil {
		return nil, inventory.ErrStockNotFound
	}
	return e.rec.Clone(), nil
}

// List 分页查询，按商品、库位升序
func (s *StockStore) List(ctx context.Context, filter inventory.StockFilter, page, pageSize int) ([]*inventory.StockRecord, int64, error) {
	var all []*inventory.StockRecord
	s.entries.Range(func(_, v any) bool {
		e := v.(*stockEntry)
		e.mu.Lock()
		if e.rec != nil && filter.Match(e.rec) {
			all = append(all, e.rec.Clone())
		}
		e.mu.Unlock()
		return true
	})

	sort.Slice(all, func(i, j int) bool {
		if all[i].ProductID != all[j].ProductID {
			return all[i].ProductID < all[j].ProductID
		}
		return all[i].LocationID < all[j].LocationID
	})

	return paginate(all, page, pageSize), int64(len(all)), nil
}

// Delete 删除库存记录
func (s *StockStore) Delete(ctx context.Context, key inventory.Key) error {
	v, ok := s.entries.Load(key)
	if !ok {
		return inventory.ErrStockNotFound
	}
	e := v.(*stockEntry)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rec == nil {
		return inventory.ErrStockNotFound
	}
	e.rec = nil
	return nil
}

func (s *StockStore) entry(key inventory.Key) *stockEntry {
	if v, ok := s.entries.Load(key); ok {
		return v.(*stockEntry)
	}
	v, _ := s.entries.LoadOrStore(key, &stockEntry{})
	return v.(*stockEntry)
}

func (s *StockStore) allocID() uint {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	s.nextID++
	return s.nextID
}

// paginate 页码从1开始，越界返回空切片
func paginate[T any](all []T, page, pageSize int) []T {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		return all
	}
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []T{}
	}
	end := min(start+pageSize, len(all))
	return all[start:end]
}
