package inventory

import (
	"time"
)

// TransactionType 库存流水类型
type TransactionType string

const (
	TxReserve    TransactionType = "RESERVE"    // 预占
	TxRelease    TransactionType = "RELEASE"    // 释放预占
	TxOut        TransactionType = "OUT"        // 确认出库
	TxInward     TransactionType = "INWARD"     // 回补 / 手工入库
	TxOutward    TransactionType = "OUTWARD"    // 手工出库
	TxIssue      TransactionType = "ISSUE"      // 领用
	TxAdjustment TransactionType = "ADJUSTMENT" // 盘点重置
)

// Valid 是否为已知类型
func (t TransactionType) Valid() bool {
	switch t {
	case TxReserve, TxRelease, TxOut, TxInward, TxOutward, TxIssue, TxAdjustment:
		return true
	}
	return false
}

// Transaction 库存流水(不可变)
// 每次成功的台账操作恰好写一条，与记录变更在同一个存储事务中提交。
// Reference通常是订单号，但不是外键。
type Transaction struct {
	ID         uint
	ProductID  uint
	LocationID uint
	Type       TransactionType
	Quantity   int
	Reference  string
	Reason     string
	Actor      string

	// 变更后的计数快照，用于对账
	AvailableAfter  int
	ReservedAfter   int
	DispatchedAfter int

	CreatedAt time.Time
}

// NewTransaction 根据变更后的记录创建流水
func NewTransaction(rec *StockRecord, typ TransactionType, qty int, reference, reason, actor string) *Transaction {
	return &Transaction{
		ProductID:       rec.ProductID,
		LocationID:      rec.LocationID,
		Type:            typ,
		Quantity:        qty,
		Reference:       reference,
		Reason:          reason,
		Actor:           actor,
		AvailableAfter:  rec.Available,
		ReservedAfter:   rec.Reserved,
		DispatchedAfter: rec.Dispatched,
		CreatedAt:       time.Now(),
	}
}

// Validate 校验必填字段
// ADJUSTMENT记录的是重置后的绝对值，允许为0
func (t *Transaction) Validate() error {
	if t.ProductID == 0 || t.LocationID == 0 || !t.Type.Valid() {
		return ErrInvalidTransaction
	}
	if t.Quantity < 0 || (t.Quantity == 0 && t.Type != TxAdjustment) {
		return ErrInvalidTransaction
	}
	return nil
}

// TransactionFilter 流水查询条件，零值字段不参与过滤
type TransactionFilter struct {
	ProductID  uint
	LocationID uint
	Type       TransactionType
	Reference  string
	From       time.Time // 包含
	To         time.Time // 不包含
}

// Match 内存实现使用的过滤判断
func (f TransactionFilter) Match(t *Transaction) bool {
	if f.ProductID != 0 && t.ProductID != f.ProductID {
		return false
	}
	if f.LocationID != 0 && t.LocationID != f.LocationID {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Reference != "" && t.Reference != f.Reference {
		return false
	}
	if !f.From.IsZero() && t.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !t.CreatedAt.Before(f.To) {
		return false
	}
	return true
}

// Cursor 倒序分页游标(上一页最后一条的位置)
// ID单调递增，同一时间戳内用ID决定先后
type Cursor struct {
	CreatedAt time.Time
	ID        uint
}

// Before 流水t是否排在游标之后(更旧)
func (c *Cursor) Before(t *Transaction) bool {
	if c == nil {
		return true
	}
	if t.CreatedAt.Equal(c.CreatedAt) {
		return t.ID < c.ID
	}
	return t.CreatedAt.Before(c.CreatedAt)
}
