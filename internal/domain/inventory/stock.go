package inventory

import (
	"fmt"
	"time"

	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// Key 库存记录的唯一键(商品 × 库位)
type Key struct {
	ProductID  uint
	LocationID uint
}

// String 锁键与缓存键使用的字符串形式
func (k Key) String() string {
	return fmt.Sprintf("stock:%d:%d", k.ProductID, k.LocationID)
}

// StockRecord 库存记录
// 三个计数器描述同一批货在生命周期中的位置：
//
//	Available  可售(可被预占)
//	Reserved   已被草稿订单预占，尚未确认
//	Dispatched 已确认出库，累计值，退货/删除订单时回补
//
// 任何操作都不能让计数器变为负数。
type StockRecord struct {
	ID         uint
	ProductID  uint
	LocationID uint
	Available  int
	Reserved   int
	Dispatched int
	Version    int64 // 每次持久化递增，SQL存储用于乐观锁校验
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewStockRecord 创建计数器全部为0的新记录(首次操作时惰性创建)
func NewStockRecord(key Key) *StockRecord {
	return &StockRecord{
		ProductID:  key.ProductID,
		LocationID: key.LocationID,
	}
}

// Key 返回记录的唯一键
func (r *StockRecord) Key() Key {
	return Key{ProductID: r.ProductID, LocationID: r.LocationID}
}

// Current 账面总量
func (r *StockRecord) Current() int {
	return r.Available + r.Reserved + r.Dispatched
}

// Status 根据可用量派生的库存状态
func (r *StockRecord) Status(lowStockThreshold int) StockStatus {
	switch {
	case r.Available <= 0:
		return StatusOutOfStock
	case r.Available < lowStockThreshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Validate 校验不变量
func (r *StockRecord) Validate() error {
	if r.Available < 0 || r.Reserved < 0 || r.Dispatched < 0 {
		return apperrors.WithDetail(ErrNegativeCounter, "available=%d reserved=%d dispatched=%d",
			r.Available, r.Reserved, r.Dispatched)
	}
	return nil
}

// Clone 返回副本
func (r *StockRecord) Clone() *StockRecord {
	c := *r
	return &c
}

// =========================================
// 计数器变更(领域行为)
// 失败时记录保持不变
// =========================================

// Reserve 预占：Available → Reserved
func (r *StockRecord) Reserve(qty int) error {
	if r.Available < qty {
		return apperrors.WithDetail(ErrInsufficientStock, "可用%d,需要%d", r.Available, qty)
	}
	r.Available -= qty
	r.Reserved += qty
	return nil
}

// Release 释放预占：Reserved → Available
// clamp为true时预占不足部分被忽略(兼容旧行为)，数量仍全部加回可用
func (r *StockRecord) Release(qty int, clamp bool) error {
	if r.Reserved < qty && !clamp {
		return apperrors.WithDetail(ErrInsufficientReservedStock, "已预占%d,释放%d", r.Reserved, qty)
	}
	r.Reserved -= min(qty, r.Reserved)
	r.Available += qty
	return nil
}

// Confirm 确认出库：Reserved → Dispatched
func (r *StockRecord) Confirm(qty int) error {
	if r.Reserved < qty {
		return apperrors.WithDetail(ErrInsufficientReservedStock, "已预占%d,确认%d", r.Reserved, qty)
	}
	r.Reserved -= qty
	r.Dispatched += qty
	return nil
}

// Restore 回补：Dispatched → Available
// clamp语义同Release
func (r *StockRecord) Restore(qty int, clamp bool) error {
	if r.Dispatched < qty && !clamp {
		return apperrors.WithDetail(ErrInsufficientDispatchedStock, "已出库%d,回补%d", r.Dispatched, qty)
	}
	r.Dispatched -= min(qty, r.Dispatched)
	r.Available += qty
	return nil
}

// Inward 入库
func (r *StockRecord) Inward(qty int) {
	r.Available += qty
}

// Outward 出库(领用、报损)
func (r *StockRecord) Outward(qty int) error {
	if r.Available < qty {
		return apperrors.WithDetail(ErrInsufficientStock, "可用%d,出库%d", r.Available, qty)
	}
	r.Available -= qty
	return nil
}

// Reset 盘点重置：可用量设为qty，预占和已出库清零
// 注意：会清掉进行中订单的预占
func (r *StockRecord) Reset(qty int) {
	r.Available = qty
	r.Reserved = 0
	r.Dispatched = 0
}

// StockStatus 库存状态(只读派生值)
type StockStatus string

const (
	StatusInStock    StockStatus = "In Stock"
	StatusLowStock   StockStatus = "Low Stock"
	StatusOutOfStock StockStatus = "Out of Stock"
)

// DefaultLowStockThreshold 默认低库存阈值
const DefaultLowStockThreshold = 5

// StockFilter 库存列表查询条件
type StockFilter struct {
	ProductID  uint // 0表示不过滤
	LocationID uint // 0表示不过滤
}

// Match 内存实现使用的过滤判断
func (f StockFilter) Match(r *StockRecord) bool {
	if f.ProductID != 0 && r.ProductID != f.ProductID {
		return false
	}
	if f.LocationID != 0 && r.LocationID != f.LocationID {
		return false
	}
	return true
}
