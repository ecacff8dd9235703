package inventory

import (
	"context"
)

// Mutation 在已加载(或新建)的记录上执行校验和变更，返回要追加的流水
// 返回error时仓储必须放弃本次变更，记录和流水都不落库
type Mutation func(rec *StockRecord) (*Transaction, error)

// StockRepository 库存记录仓储接口
// 教学要点:
//  1. Apply是唯一的写入口：加载→变更→持久化记录→追加流水，作为一个整体提交
//  2. 实现方自行保证单键原子性(SQL用事务+SELECT FOR UPDATE+版本号，内存用条目锁)
//  3. 跨键原子性不在接口承诺范围内，由订单层的Saga补偿负责
type StockRepository interface {
	// Apply 对单个键执行一次原子变更
	// create为false且记录不存在时返回ErrStockNotFound
	Apply(ctx context.Context, key Key, create bool, mutate Mutation) (*StockRecord, error)

	// Get 查询库存记录，不存在返回ErrStockNotFound
	Get(ctx context.Context, key Key) (*StockRecord, error)

	// List 分页查询库存记录(按商品、库位升序)
	List(ctx context.Context, filter StockFilter, page, pageSize int) ([]*StockRecord, int64, error)

	// Delete 删除库存记录(管理员清理用，不检查是否仍被订单引用)
	Delete(ctx context.Context, key Key) error
}

// TransactionRepository 库存流水仓储接口(只追加)
type TransactionRepository interface {
	// Append 追加一条流水，回填ID
	Append(ctx context.Context, tx *Transaction) error

	// Page 按(CreatedAt, ID)倒序返回游标之后的至多limit条
	// after为nil表示从最新一条开始
	Page(ctx context.Context, filter TransactionFilter, after *Cursor, limit int) ([]*Transaction, error)

	// List 分页查询(倒序)，同时返回总数
	List(ctx context.Context, filter TransactionFilter, page, pageSize int) ([]*Transaction, int64, error)
}

// Locker 按键互斥锁
// 进程内实现见pkg/keylock，多实例部署使用Redis实现
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// NopLocker 不加锁，串行化完全交给仓储(SQL行锁)
type NopLocker struct{}

// Lock 实现Locker
func (NopLocker) Lock(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return func() {}, nil
}
