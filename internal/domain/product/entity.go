package product

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// 优惠类型：只有Discount会直接抵扣单价，其它类型仅随订单快照记录
const (
	IncentiveDiscount   = "Discount"
	IncentiveCommission = "Commission"
	IncentiveNone       = "None"
)

// Status 商品状态
type Status string

const (
	StatusActive       Status = "Active"       // 在售
	StatusInactive     Status = "Inactive"     // 暂停销售，可恢复
	StatusDiscontinued Status = "Discontinued" // 停产
)

// Valid 是否为已知状态
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusDiscontinued:
		return true
	}
	return false
}

// Product 商品(聚合根)
// 设计说明:
// 1. 金额统一用decimal，落库为DECIMAL(12,2)
// 2. GSTRate是百分比(18表示18%)
// 3. 订单只保存下单时的价格快照，商品改价不影响历史订单
type Product struct {
	ID             uint
	SKU            string // 商品编码(唯一)
	Name           string
	Price          decimal.Decimal
	GSTRate        decimal.Decimal
	IncentiveType  string
	IncentiveValue decimal.Decimal
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewProduct 创建商品(工厂方法)
func NewProduct(sku, name string, price, gstRate decimal.Decimal, incentiveType string, incentiveValue decimal.Decimal) *Product {
	now := time.Now()
	incentiveType = strings.TrimSpace(incentiveType)
	if incentiveType == "" {
		incentiveType = IncentiveNone
	}
	return &Product{
		SKU:            strings.TrimSpace(sku),
		Name:           strings.TrimSpace(name),
		Price:          price,
		GSTRate:        gstRate,
		IncentiveType:  incentiveType,
		IncentiveValue: incentiveValue,
		Status:         StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Validate 业务规则校验
func (p *Product) Validate() error {
	if p.SKU == "" || p.Name == "" {
		return ErrInvalidProduct
	}
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if p.GSTRate.IsNegative() || p.GSTRate.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidGSTRate
	}
	if p.IncentiveValue.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}

// IsActive 只有在售商品可以下单
func (p *Product) IsActive() bool {
	return p.Status == StatusActive
}

// ChangeStatus 变更状态
func (p *Product) ChangeStatus(status Status) error {
	if !status.Valid() {
		return invalidStatus(status)
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return nil
}

// Changes 商品资料变更，nil字段保持不变
type Changes struct {
	Name           *string
	Price          *decimal.Decimal
	GSTRate        *decimal.Decimal
	IncentiveType  *string
	IncentiveValue *decimal.Decimal
}

// Apply 应用变更并重新校验；编码不可修改
// 已下单的订单保存的是快照，这里改价不影响它们
func (p *Product) Apply(c Changes) error {
	next := *p
	if c.Name != nil {
		next.Name = strings.TrimSpace(*c.Name)
	}
	if c.Price != nil {
		next.Price = *c.Price
	}
	if c.GSTRate != nil {
		next.GSTRate = *c.GSTRate
	}
	if c.IncentiveType != nil {
		next.IncentiveType = strings.TrimSpace(*c.IncentiveType)
		if next.IncentiveType == "" {
			next.IncentiveType = IncentiveNone
		}
	}
	if c.IncentiveValue != nil {
		next.IncentiveValue = *c.IncentiveValue
	}
	if err := next.Validate(); err != nil {
		return err
	}
	next.UpdatedAt = time.Now()
	*p = next
	return nil
}

// Snapshot 下单时的价格快照
type Snapshot struct {
	ProductID      uint
	Name           string
	UnitPrice      decimal.Decimal
	GSTRate        decimal.Decimal
	IncentiveType  string
	IncentiveValue decimal.Decimal
}

// Snapshot 生成价格快照
func (p *Product) Snapshot() Snapshot {
	return Snapshot{
		ProductID:      p.ID,
		Name:           p.Name,
		UnitPrice:      p.Price,
		GSTRate:        p.GSTRate,
		IncentiveType:  p.IncentiveType,
		IncentiveValue: p.IncentiveValue,
	}
}
