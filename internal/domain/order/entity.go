package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus 订单状态
// 教学要点:
// 1. 使用int类型而非string(节省存储空间,便于索引)
// 2. 对外(JSON/查询参数)使用String()的英文名，ParseStatus反解析
// 3. 主线按1-5递增，Returned是旁支终态
type OrderStatus int

const (
	StatusDraft      OrderStatus = 1 // 草稿：明细可改，库存处于预占
	StatusConfirmed  OrderStatus = 2 // 已确认：预占转为已出库
	StatusDispatched OrderStatus = 3 // 已发货
	StatusDelivered  OrderStatus = 4 // 已送达
	StatusClosed     OrderStatus = 5 // 已关闭(终态)
	StatusReturned   OrderStatus = 6 // 已退货(终态)
)

var statusNames = map[OrderStatus]string{
	StatusDraft:      "Draft",
	StatusConfirmed:  "Confirmed",
	StatusDispatched: "Dispatched",
	StatusDelivered:  "Delivered",
	StatusClosed:     "Closed",
	StatusReturned:   "Returned",
}

// String 实现Stringer接口
func (s OrderStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// ParseStatus 解析状态名(不区分大小写)
func ParseStatus(s string) (OrderStatus, error) {
	for status, name := range statusNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return status, nil
		}
	}
	return 0, ErrInvalidStatus
}

// IsTerminal 是否终态
func (s OrderStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusReturned
}

// StockEffect 状态变化对库存的影响
type StockEffect int

const (
	EffectNone    StockEffect = iota
	EffectReserve             // 预占
	EffectRelease             // 释放预占
	EffectConfirm             // 预占→已出库
	EffectRestore             // 已出库→可用
)

// transitions 合法的状态流转及其库存影响
var transitions = map[OrderStatus]map[OrderStatus]StockEffect{
	StatusDraft:      {StatusConfirmed: EffectConfirm},
	StatusConfirmed:  {StatusDispatched: EffectNone, StatusReturned: EffectRestore},
	StatusDispatched: {StatusDelivered: EffectNone, StatusReturned: EffectRestore},
	StatusDelivered:  {StatusClosed: EffectNone, StatusReturned: EffectRestore},
	StatusClosed:     {},
	StatusReturned:   {},
}

// PaymentType 支付方式
type PaymentType string

const (
	PaymentCash   PaymentType = "Cash"
	PaymentCard   PaymentType = "Card"
	PaymentUPI    PaymentType = "UPI"
	PaymentCOD    PaymentType = "COD"
	PaymentOnline PaymentType = "Online"
)

// Valid 是否合法的支付方式
func (p PaymentType) Valid() bool {
	switch p {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentCOD, PaymentOnline:
		return true
	}
	return false
}

// PaymentStatus 支付状态
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "Unpaid"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentPartial PaymentStatus = "Partial"
)

// Valid 是否合法的支付状态
func (p PaymentStatus) Valid() bool {
	return p == PaymentUnpaid || p == PaymentPaid || p == PaymentPartial
}

// Order 订单实体(聚合根)
// 教学要点:
// 1. Order是聚合根,Item是子实体
// 2. OrderNo形如ORD-1001，由Sequence串行分配
// 3. 金额字段冗余存储，明细变化时统一由Recalculate重算，不允许手工修改
type Order struct {
	ID                   uint
	OrderNo              string
	CustomerName         string
	LocationID           uint // 开单门店，也是明细的默认库位
	ExpectedDeliveryDate *time.Time
	Items                []Item
	Status               OrderStatus
	PaymentType          PaymentType
	PaymentStatus        PaymentStatus
	DeliveryCharge       decimal.Decimal
	Subtotal             decimal.Decimal
	GSTAmount            decimal.Decimal
	GrandTotal           decimal.Decimal
	ReturnReason         string
	CreatedBy            string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Item 订单明细
// 教学要点:
// 1. 不是独立聚合根,必须通过Order访问
// 2. 单价/税率/优惠是下单时的快照，商品改价后历史订单金额不变
type Item struct {
	ID             uint
	ProductID      uint
	LocationID     uint
	ProductName    string
	Quantity       int
	UnitPrice      decimal.Decimal
	GSTRate        decimal.Decimal
	IncentiveType  string
	IncentiveValue decimal.Decimal
	LineSubtotal   decimal.Decimal
	LineTax        decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// EffectivePrice 实际单价：只有Discount类优惠直接抵扣，且不低于0
func (i Item) EffectivePrice() decimal.Decimal {
	if !strings.EqualFold(i.IncentiveType, "Discount") {
		return i.UnitPrice
	}
	p := i.UnitPrice.Sub(i.IncentiveValue)
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

// compute 计算行小计和行税额(四舍五入到分)
func (i *Item) compute() {
	i.LineSubtotal = i.EffectivePrice().Mul(decimal.NewFromInt(int64(i.Quantity))).Round(2)
	i.LineTax = i.LineSubtotal.Mul(i.GSTRate).Div(hundred).Round(2)
}

// NewOrder 创建草稿订单(工厂方法)
// 明细未指定库位时使用订单门店
func NewOrder(orderNo, customerName string, locationID uint, items []Item, paymentType PaymentType, deliveryCharge decimal.Decimal, createdBy string) (*Order, error) {
	now := time.Now()
	o := &Order{
		OrderNo:        orderNo,
		CustomerName:   strings.TrimSpace(customerName),
		LocationID:     locationID,
		Status:         StatusDraft,
		PaymentType:    paymentType,
		PaymentStatus:  PaymentUnpaid,
		DeliveryCharge: deliveryCharge,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if !paymentType.Valid() {
		return nil, ErrInvalidPaymentType
	}
	if deliveryCharge.IsNegative() {
		return nil, ErrInvalidDeliveryCharge
	}
	if err := o.setItems(items); err != nil {
		return nil, err
	}
	return o, nil
}

// setItems 校验并替换明细，随后重算金额
func (o *Order) setItems(items []Item) error {
	if len(items) == 0 {
		return ErrInvalidOrderItems
	}
	next := make([]Item, len(items))
	for i, it := range items {
		if it.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if it.ProductID == 0 {
			return ErrInvalidOrderItems
		}
		if it.LocationID == 0 {
			it.LocationID = o.LocationID
		}
		next[i] = it
	}
	o.Items = next
	o.Recalculate()
	return nil
}

// ReplaceItems 修改明细，只允许草稿状态
func (o *Order) ReplaceItems(items []Item) error {
	if o.Status != StatusDraft {
		return ErrItemsLocked
	}
	if err := o.setItems(items); err != nil {
		return err
	}
	o.UpdatedAt = time.Now()
	return nil
}

// Recalculate 重算行金额和订单合计
func (o *Order) Recalculate() {
	subtotal, tax := decimal.Zero, decimal.Zero
	for i := range o.Items {
		o.Items[i].compute()
		subtotal = subtotal.Add(o.Items[i].LineSubtotal)
		tax = tax.Add(o.Items[i].LineTax)
	}
	o.Subtotal = subtotal
	o.GSTAmount = tax
	o.GrandTotal = subtotal.Add(tax).Add(o.DeliveryCharge).Round(2)
}

// UpdateHeader 修改客户/门店/配送信息，空值表示不修改
// 门店只在草稿状态可改(它决定明细的默认库位)
func (o *Order) UpdateHeader(customerName string, expected *time.Time, deliveryCharge *decimal.Decimal, paymentType PaymentType) error {
	if o.Status.IsTerminal() {
		return ErrInvalidStatusTransition
	}
	if paymentType != "" {
		if !paymentType.Valid() {
			return ErrInvalidPaymentType
		}
		o.PaymentType = paymentType
	}
	if deliveryCharge != nil {
		if deliveryCharge.IsNegative() {
			return ErrInvalidDeliveryCharge
		}
		o.DeliveryCharge = *deliveryCharge
	}
	if n := strings.TrimSpace(customerName); n != "" {
		o.CustomerName = n
	}
	if expected != nil {
		o.ExpectedDeliveryDate = expected
	}
	o.Recalculate()
	o.UpdatedAt = time.Now()
	return nil
}

// CanTransitionTo 检查是否可以转换到目标状态
// 教学要点:状态机设计,防止非法状态跳转
func (o *Order) CanTransitionTo(target OrderStatus) bool {
	_, ok := transitions[o.Status][target]
	return ok
}

// TransitionEffect 返回流转到目标状态需要的库存操作
func (o *Order) TransitionEffect(target OrderStatus) (StockEffect, error) {
	effect, ok := transitions[o.Status][target]
	if !ok {
		return EffectNone, ErrInvalidStatusTransition
	}
	return effect, nil
}

// TransitionTo 状态转换
func (o *Order) TransitionTo(target OrderStatus) error {
	if !o.CanTransitionTo(target) {
		return ErrInvalidStatusTransition
	}
	o.Status = target
	o.UpdatedAt = time.Now()
	return nil
}

// MarkReturned 退货，记录原因
func (o *Order) MarkReturned(reason string) error {
	if err := o.TransitionTo(StatusReturned); err != nil {
		return err
	}
	o.ReturnReason = strings.TrimSpace(reason)
	return nil
}

// SetPaymentStatus 修改支付状态，终态订单不允许修改
func (o *Order) SetPaymentStatus(status PaymentStatus) error {
	if !status.Valid() {
		return ErrInvalidPaymentStatus
	}
	if o.Status.IsTerminal() {
		return ErrInvalidStatusTransition
	}
	o.PaymentStatus = status
	o.UpdatedAt = time.Now()
	return nil
}

// DeleteEffect 删除订单时的库存操作
// 草稿释放预占；已确认及之后回补；已退货的库存已经回补过
func (o *Order) DeleteEffect() StockEffect {
	switch o.Status {
	case StatusDraft:
		return EffectRelease
	case StatusReturned:
		return EffectNone
	default:
		return EffectRestore
	}
}

// Clone 深拷贝
func (o *Order) Clone() *Order {
	c := *o
	c.Items = append([]Item(nil), o.Items...)
	if o.ExpectedDeliveryDate != nil {
		t := *o.ExpectedDeliveryDate
		c.ExpectedDeliveryDate = &t
	}
	return &c
}
