package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/internal/domain/location"
	"github.com/xiebiao/smb-erp/internal/domain/order"
	"github.com/xiebiao/smb-erp/internal/domain/product"
)

// UpdateOrderUseCase 修改订单
// 明细只能在草稿状态修改，变化的(商品,库位)先释放旧数量再预占新数量；
// 客户名、预计送达、运费、支付方式在非终态都可以改，不影响库存
type UpdateOrderUseCase struct {
	orderRepo order.Repository
	locations location.Service
	catalog   product.Catalog
	stock     *StockCoordinator
	sink      audit.Sink
	logger    *zap.Logger
}

// NewUpdateOrderUseCase 创建改单用例
func NewUpdateOrderUseCase(
	orderRepo order.Repository,
	locations location.Service,
	catalog product.Catalog,
	stock *StockCoordinator,
	sink audit.Sink,
	logger *zap.Logger,
) *UpdateOrderUseCase {
	return &UpdateOrderUseCase{
		orderRepo: orderRepo,
		locations: locations,
		catalog:   catalog,
		stock:     stock,
		sink:      sink,
		logger:    logger,
	}
}

// UpdateOrderRequest 改单请求DTO，nil/空值字段不修改
type UpdateOrderRequest struct {
	OrderNo              string
	CustomerName         string
	ExpectedDeliveryDate *time.Time
	DeliveryCharge       *decimal.Decimal
	PaymentType          string
	Items                []ItemRequest // nil表示不改明细
	Actor                string
}

// Execute 执行改单
func (uc *UpdateOrderUseCase) Execute(ctx context.Context, req UpdateOrderRequest) (resp *OrderResponse, err error) {
	ctx, done := observe(ctx, "update", req.OrderNo)
	defer func() { done(err) }()

	unlock, err := uc.stock.lockOrder(ctx, req.OrderNo)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := uc.orderRepo.FindByOrderNo(ctx, req.OrderNo)
	if err != nil {
		return nil, err
	}
	next := current.Clone()

	var ops []stockOp
	var changes []order.LineChange
	if req.Items != nil {
		if next.Status != order.StatusDraft {
			return nil, order.ErrItemsLocked
		}
		items, err := buildItems(ctx, uc.locations, uc.catalog, next.LocationID, req.Items, current.Items)
		if err != nil {
			return nil, err
		}
		if err := next.ReplaceItems(items); err != nil {
			return nil, err
		}
		changes = order.Diff(current.Items, next.Items)
		ops = opsForChanges(changes)
	}

	if err := next.UpdateHeader(req.CustomerName, req.ExpectedDeliveryDate, req.DeliveryCharge,
		order.PaymentType(req.PaymentType)); err != nil {
		return nil, err
	}

	err = uc.stock.run(ctx, "update_order", next.OrderNo, req.Actor, ops, func(ctx context.Context) error {
		return uc.orderRepo.Update(ctx, next)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("订单已修改",
		zap.String("order_no", next.OrderNo),
		zap.Int("changed_lines", len(changes)),
		zap.String("actor", req.Actor))
	uc.sink.LogAction(ctx, auditEntry("update", next, req.Actor, map[string]any{
		"changed_lines": len(changes),
	}))

	return toResponse(next), nil
}
