package sqlstore

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockRecordModel 库存记录
// 设计说明:
// 1. (product_id, location_id)唯一索引，惰性创建时并发插入由它兜底
// 2. Version用于乐观锁校验，配合SELECT FOR UPDATE使用
// 3. 这是infrastructure层的数据模型，domain/inventory的实体不依赖GORM
type StockRecordModel struct {
	ID         uint      `gorm:"primaryKey"`
	ProductID  uint      `gorm:"uniqueIndex:uk_product_location;not null;comment:商品ID"`
	LocationID uint      `gorm:"uniqueIndex:uk_product_location;index;not null;comment:库位ID"`
	Available  int       `gorm:"not null;default:0;comment:可用数量"`
	Reserved   int       `gorm:"not null;default:0;comment:预占数量"`
	Dispatched int       `gorm:"not null;default:0;comment:已出库数量"`
	Version    int64     `gorm:"not null;default:0;comment:版本号"`
	CreatedAt  time.Time `gorm:"comment:创建时间"`
	UpdatedAt  time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (StockRecordModel) TableName() string {
	return "stock_records"
}

// TransactionModel 库存流水(只追加)
// 教学要点:
// 1. (created_at, id)复合索引支撑倒序游标分页
// 2. 记录变更后的三个计数，对账时无需回放
type TransactionModel struct {
	ID              uint      `gorm:"primaryKey;index:idx_tx_time,priority:2"`
	ProductID       uint      `gorm:"index:idx_tx_key;not null;comment:商品ID"`
	LocationID      uint      `gorm:"index:idx_tx_key;not null;comment:库位ID"`
	Type            string    `gorm:"size:20;index;not null;comment:流水类型"`
	Quantity        int       `gorm:"not null;comment:数量"`
	Reference       string    `gorm:"size:100;index;comment:关联单号"`
	Reason          string    `gorm:"size:255;comment:原因"`
	Actor           string    `gorm:"size:100;comment:操作人"`
	AvailableAfter  int       `gorm:"not null;comment:变更后可用"`
	ReservedAfter   int       `gorm:"not null;comment:变更后预占"`
	DispatchedAfter int       `gorm:"not null;comment:变更后已出库"`
	CreatedAt       time.Time `gorm:"index:idx_tx_time,priority:1;comment:创建时间"`
}

// TableName 指定表名
func (TransactionModel) TableName() string {
	return "stock_transactions"
}

// LocationModel 库位
type LocationModel struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;size:100;not null;comment:名称"`
	Address   string    `gorm:"size:255;comment:地址"`
	Active    bool      `gorm:"not null;default:true;index;comment:是否启用"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
	UpdatedAt time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (LocationModel) TableName() string {
	return "locations"
}

// ProductModel 商品
// 金额使用DECIMAL(12,2)，shopspring/decimal实现了Scanner/Valuer
type ProductModel struct {
	ID             uint            `gorm:"primaryKey"`
	SKU            string          `gorm:"uniqueIndex;size:64;not null;comment:商品编码"`
	Name           string          `gorm:"size:200;not null;index;comment:名称"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null;comment:单价"`
	GSTRate        decimal.Decimal `gorm:"type:decimal(5,2);not null;comment:GST税率(%)"`
	IncentiveType  string          `gorm:"size:32;comment:优惠类型"`
	IncentiveValue decimal.Decimal `gorm:"type:decimal(12,2);not null;comment:优惠金额"`
	Status         string          `gorm:"size:16;not null;index;comment:状态(Active/Inactive/Discontinued)"`
	CreatedAt      time.Time       `gorm:"comment:创建时间"`
	UpdatedAt      time.Time       `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (ProductModel) TableName() string {
	return "products"
}

// OrderModel GORM订单模型
// 教学要点:
// 1. 与OrderItemModel是一对多关系
// 2. OrderNo有唯一索引(业务主键)，软删除后号码仍被占用，不会复用
// 3. Status使用int存储(节省空间,便于索引)
type OrderModel struct {
	ID                   uint             `gorm:"primaryKey"`
	OrderNo              string           `gorm:"uniqueIndex;size:32;not null;comment:订单号"`
	CustomerName         string           `gorm:"size:100;comment:客户名称"`
	LocationID           uint             `gorm:"index:idx_order_list;not null;comment:开单门店"`
	ExpectedDeliveryDate *time.Time       `gorm:"comment:预计送达日期"`
	Status               int              `gorm:"index:idx_order_list;not null;default:1;comment:订单状态(1草稿2已确认3已发货4已送达5已关闭6已退货)"`
	PaymentType          string           `gorm:"size:16;comment:支付方式"`
	PaymentStatus        string           `gorm:"size:16;comment:支付状态"`
	DeliveryCharge       decimal.Decimal  `gorm:"type:decimal(12,2);not null;comment:运费"`
	Subtotal             decimal.Decimal  `gorm:"type:decimal(12,2);not null;comment:小计"`
	GSTAmount            decimal.Decimal  `gorm:"type:decimal(12,2);not null;comment:税额"`
	GrandTotal           decimal.Decimal  `gorm:"type:decimal(12,2);not null;comment:总计"`
	ReturnReason         string           `gorm:"size:255;comment:退货原因"`
	CreatedBy            string           `gorm:"size:100;comment:开单人"`
	Items                []OrderItemModel `gorm:"foreignKey:OrderID"`
	CreatedAt            time.Time        `gorm:"index;comment:创建时间"`
	UpdatedAt            time.Time        `gorm:"comment:更新时间"`
	DeletedAt            gorm.DeletedAt   `gorm:"index;comment:删除时间(软删除)"`
}

// TableName 指定表名
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel GORM订单明细模型
// 教学要点:记录下单时的价格快照
type OrderItemModel struct {
	ID             uint            `gorm:"primaryKey"`
	OrderID        uint            `gorm:"index;not null;comment:订单ID"`
	ProductID      uint            `gorm:"index;not null;comment:商品ID"`
	LocationID     uint            `gorm:"not null;comment:出库库位"`
	ProductName    string          `gorm:"size:200;comment:商品名称快照"`
	Quantity       int             `gorm:"not null;comment:数量"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null;comment:下单时单价"`
	GSTRate        decimal.Decimal `gorm:"type:decimal(5,2);not null;comment:下单时税率"`
	IncentiveType  string          `gorm:"size:32;comment:优惠类型"`
	IncentiveValue decimal.Decimal `gorm:"type:decimal(12,2);not null;comment:优惠金额"`
	LineSubtotal   decimal.Decimal `gorm:"type:decimal(12,2);not null;comment:行小计"`
	LineTax        decimal.Decimal `gorm:"type:decimal(12,2);not null;comment:行税额"`
}

// TableName 指定表名
func (OrderItemModel) TableName() string {
	return "order_items"
}

// AuditLogModel 审计日志
type AuditLogModel struct {
	ID          uint      `gorm:"primaryKey"`
	Module      string    `gorm:"size:32;index:idx_audit_entity;not null;comment:模块"`
	Action      string    `gorm:"size:64;not null;comment:动作"`
	EntityID    string    `gorm:"size:64;index:idx_audit_entity;comment:实体ID"`
	PerformedBy string    `gorm:"size:100;comment:操作人"`
	Details     string    `gorm:"type:text;comment:详情(JSON)"`
	CreatedAt   time.Time `gorm:"index;comment:创建时间"`
}

// TableName 指定表名
func (AuditLogModel) TableName() string {
	return "audit_logs"
}
