package sqlstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/smb-erp/internal/domain/order"
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// orderRepository 订单仓储实现(GORM)
// 教学要点:
// 1. Order和OrderItem是聚合关系,必须一起保存
// 2. 查询时使用Preload预加载明细,避免N+1问题
// 3. 事务通过context传递
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

// Create 创建订单
// 教学要点:GORM会自动保存关联的Items(通过foreignKey)
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	model := toOrderModel(o)

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return order.ErrOrderNoDuplicate
		}
		return apperrors.WrapDatabase(err, "创建订单失败")
	}

	// 回填自增ID
	o.ID = model.ID
	for i := range o.Items {
		o.Items[i].ID = model.Items[i].ID
	}
	return nil
}

// FindByOrderNo 根据订单号查找订单
func (r *orderRepository) FindByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	var model OrderModel
	err := getDB(ctx, r.db).Preload("Items").Where("order_no = ?", orderNo).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.WrapDatabase(err, "查询订单失败")
	}
	return toOrderEntity(&model), nil
}

// Update 更新订单头，明细整体替换
// 教学要点:先删后插放在同一事务里，外层已有事务时使用Savepoint
func (r *orderRepository) Update(ctx context.Context, o *order.Order) error {
	model := toOrderModel(o)

	return getDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&OrderModel{}).Where("id = ?", o.ID).Updates(map[string]interface{}{
			"customer_name":          model.CustomerName,
			"location_id":            model.LocationID,
			"expected_delivery_date": model.ExpectedDeliveryDate,
			"status":                 model.Status,
			"payment_type":           model.PaymentType,
			"payment_status":         model.PaymentStatus,
			"delivery_charge":        model.DeliveryCharge,
			"subtotal":               model.Subtotal,
			"gst_amount":             model.GSTAmount,
			"grand_total":            model.GrandTotal,
			"return_reason":          model.ReturnReason,
			"updated_at":             o.UpdatedAt,
		})
		if res.Error != nil {
			return apperrors.WrapDatabase(res.Error, "更新订单失败")
		}
		if res.RowsAffected == 0 {
			return order.ErrOrderNotFound
		}

		if err := tx.Where("order_id = ?", o.ID).Delete(&OrderItemModel{}).Error; err != nil {
			return apperrors.WrapDatabase(err, "删除订单明细失败")
		}
		for i := range model.Items {
			model.Items[i].ID = 0
			model.Items[i].OrderID = o.ID
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return apperrors.WrapDatabase(err, "写入订单明细失败")
			}
		}
		for i := range o.Items {
			o.Items[i].ID = model.Items[i].ID
		}
		return nil
	})
}

// Delete 软删除订单(明细保留，便于追溯)
func (r *orderRepository) Delete(ctx context.Context, orderNo string) error {
	res := getDB(ctx, r.db).Where("order_no = ?", orderNo).Delete(&OrderModel{})
	if res.Error != nil {
		return apperrors.WrapDatabase(res.Error, "删除订单失败")
	}
	if res.RowsAffected == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// List 分页查询订单列表
func (r *orderRepository) List(ctx context.Context, params order.ListParams) ([]*order.Order, int64, error) {
	query := getDB(ctx, r.db).Model(&OrderModel{})
	if params.LocationID != 0 {
		query = query.Where("location_id = ?", params.LocationID)
	}
	if params.Status != 0 {
		query = query.Where("status = ?", int(params.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.WrapDatabase(err, "查询订单总数失败")
	}

	var models []OrderModel
	offset, limit := pageOffset(params.Page, params.PageSize)
	err := query.Preload("Items").
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.WrapDatabase(err, "查询订单列表失败")
	}

	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = toOrderEntity(&models[i])
	}
	return orders, total, nil
}

// LatestNumber 最近创建的订单序号
// 包含已软删除的订单，避免删除最新订单后号码被复用
func (r *orderRepository) LatestNumber(ctx context.Context) (int64, error) {
	var model OrderModel
	err := getDB(ctx, r.db).Unscoped().Select("order_no").Order("id DESC").First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, apperrors.WrapDatabase(err, "查询最新订单号失败")
	}
	return order.ParseOrderNo(model.OrderNo)
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toOrderModel 领域实体 → GORM模型
func toOrderModel(o *order.Order) *OrderModel {
	items := make([]OrderItemModel, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemModel{
			ID:             it.ID,
			OrderID:        o.ID,
			ProductID:      it.ProductID,
			LocationID:     it.LocationID,
			ProductName:    it.ProductName,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			GSTRate:        it.GSTRate,
			IncentiveType:  it.IncentiveType,
			IncentiveValue: it.IncentiveValue,
			LineSubtotal:   it.LineSubtotal,
			LineTax:        it.LineTax,
		}
	}

	return &OrderModel{
		ID:                   o.ID,
		OrderNo:              o.OrderNo,
		CustomerName:         o.CustomerName,
		LocationID:           o.LocationID,
		ExpectedDeliveryDate: o.ExpectedDeliveryDate,
		Status:               int(o.Status),
		PaymentType:          string(o.PaymentType),
		PaymentStatus:        string(o.PaymentStatus),
		DeliveryCharge:       o.DeliveryCharge,
		Subtotal:             o.Subtotal,
		GSTAmount:            o.GSTAmount,
		GrandTotal:           o.GrandTotal,
		ReturnReason:         o.ReturnReason,
		CreatedBy:            o.CreatedBy,
		Items:                items,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
}

// toOrderEntity GORM模型 → 领域实体
func toOrderEntity(m *OrderModel) *order.Order {
	items := make([]order.Item, len(m.Items))
	for i, it := range m.Items {
		items[i] = order.Item{
			ID:             it.ID,
			ProductID:      it.ProductID,
			LocationID:     it.LocationID,
			ProductName:    it.ProductName,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			GSTRate:        it.GSTRate,
			IncentiveType:  it.IncentiveType,
			IncentiveValue: it.IncentiveValue,
			LineSubtotal:   it.LineSubtotal,
			LineTax:        it.LineTax,
		}
	}

	return &order.Order{
		ID:                   m.ID,
		OrderNo:              m.OrderNo,
		CustomerName:         m.CustomerName,
		LocationID:           m.LocationID,
		ExpectedDeliveryDate: m.ExpectedDeliveryDate,
		Items:                items,
		Status:               order.OrderStatus(m.Status),
		PaymentType:          order.PaymentType(m.PaymentType),
		PaymentStatus:        order.PaymentStatus(m.PaymentStatus),
		DeliveryCharge:       m.DeliveryCharge,
		Subtotal:             m.Subtotal,
		GSTAmount:            m.GSTAmount,
		GrandTotal:           m.GrandTotal,
		ReturnReason:         m.ReturnReason,
		CreatedBy:            m.CreatedBy,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}
