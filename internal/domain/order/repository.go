package order

import (
	"context"
)

// Repository 订单仓储接口(依赖倒置原则)
// 教学要点:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 订单和明细在同一事务中写入
type Repository interface {
	// Create 创建订单(包含明细)，订单号冲突返回ErrOrderNoDuplicate
	Create(ctx context.Context, order *Order) error

	// FindByOrderNo 根据订单号查找订单(包含明细)
	FindByOrderNo(ctx context.Context, orderNo string) (*Order, error)

	// Update 更新订单头和明细(明细整体替换)
	Update(ctx context.Context, order *Order) error

	// Delete 删除订单及其明细
	Delete(ctx context.Context, orderNo string) error

	// List 分页查询(按创建时间倒序)
	List(ctx context.Context, params ListParams) ([]*Order, int64, error)

	// LatestNumber 最近创建的订单的序号，没有订单时返回0
	LatestNumber(ctx context.Context) (int64, error)
}

// ListParams 列表查询参数
type ListParams struct {
	Page       int
	PageSize   int
	LocationID uint
	Status     OrderStatus // 0表示不过滤
}
