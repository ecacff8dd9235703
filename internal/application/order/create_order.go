package order

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/internal/domain/location"
	"github.com/xiebiao/smb-erp/internal/domain/order"
	"github.com/xiebiao/smb-erp/internal/domain/product"
)

// CreateOrderUseCase 创建订单用例(Draft，逐行预占库存)
// 教学要点:这是整个项目最核心的用例之一
// 涉及:按键串行化、Saga补偿、订单号分配
type CreateOrderUseCase struct {
	orderRepo order.Repository
	sequence  order.Sequence
	locations location.Service
	catalog   product.Catalog
	stock     *StockCoordinator
	sink      audit.Sink
	logger    *zap.Logger
}

// NewCreateOrderUseCase 创建下单用例
func NewCreateOrderUseCase(
	orderRepo order.Repository,
	sequence order.Sequence,
	locations location.Service,
	catalog product.Catalog,
	stock *StockCoordinator,
	sink audit.Sink,
	logger *zap.Logger,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		orderRepo: orderRepo,
		sequence:  sequence,
		locations: locations,
		catalog:   catalog,
		stock:     stock,
		sink:      sink,
		logger:    logger,
	}
}

// CreateOrderRequest 下单请求DTO
type CreateOrderRequest struct {
	CustomerName         string
	LocationID           uint // 开单门店
	ExpectedDeliveryDate *time.Time
	PaymentType          string
	DeliveryCharge       decimal.Decimal
	Items                []ItemRequest
	Actor                string // 操作人(从JWT中提取)
}

// ItemRequest 订单明细项
type ItemRequest struct {
	ProductID  uint
	LocationID uint // 0表示使用订单门店
	Quantity   int
}

// Execute 执行下单用例
//
// 核心问题:库存超卖
// 场景:商品可用10个,100人同时下单
// 台账的每次Reserve都在按键锁内完成"检查+扣减"，所以不会超卖；
// 多行订单中途失败时，已预占的行由Saga逆序释放。
func (uc *CreateOrderUseCase) Execute(ctx context.Context, req CreateOrderRequest) (resp *OrderResponse, err error) {
	ctx, done := observe(ctx, "create", "")
	defer func() { done(err) }()

	// 1. 参数与引用校验
	if len(req.Items) == 0 {
		return nil, order.ErrInvalidOrderItems
	}
	if _, err := uc.locations.RequireActive(ctx, req.LocationID); err != nil {
		return nil, err
	}
	items, err := buildItems(ctx, uc.locations, uc.catalog, req.LocationID, req.Items, nil)
	if err != nil {
		return nil, err
	}

	// 2. 构建草稿(计算金额，订单号稍后分配)
	o, err := order.NewOrder("", req.CustomerName, req.LocationID, items,
		order.PaymentType(req.PaymentType), req.DeliveryCharge, req.Actor)
	if err != nil {
		return nil, err
	}
	o.ExpectedDeliveryDate = req.ExpectedDeliveryDate
	ops := opsFor(order.EffectReserve, order.Lines(o.Items))

	// 3. 分配订单号并执行Saga；订单号冲突(多实例序号未同步)时换号重试
	for attempt := 1; ; attempt++ {
		n, err := uc.sequence.Next(ctx)
		if err != nil {
			return nil, err
		}
		o.OrderNo = order.FormatOrderNo(n)

		err = uc.stock.run(ctx, "create_order", o.OrderNo, req.Actor, ops, func(ctx context.Context) error {
			return uc.orderRepo.Create(ctx, o)
		})
		if err == nil {
			break
		}
		if errors.Is(err, order.ErrOrderNoDuplicate) && attempt < uc.stock.settings.NumberRetries {
			uc.logger.Warn("订单号冲突，重新分配",
				zap.String("order_no", o.OrderNo),
				zap.Int("attempt", attempt))
			continue
		}
		return nil, err
	}

	uc.logger.Info("订单已创建",
		zap.String("order_no", o.OrderNo),
		zap.Int("lines", len(o.Items)),
		zap.String("grand_total", o.GrandTotal.StringFixed(2)),
		zap.String("actor", req.Actor))
	uc.sink.LogAction(ctx, auditEntry("create", o, req.Actor, map[string]any{
		"customer_name": o.CustomerName,
		"location_id":   o.LocationID,
		"items":         len(o.Items),
	}))

	return toResponse(o), nil
}

// buildItems 校验库位、读取商品快照
// prev中已有且数量、库位都没变的商品沿用旧快照(草稿改单时价格不跟随商品变化)
func buildItems(ctx context.Context, locations location.Service, catalog product.Catalog, orderLocation uint, reqs []ItemRequest, prev []order.Item) ([]order.Item, error) {
	kept := make(map[order.Line]order.Item, len(prev))
	for _, it := range prev {
		kept[order.Line{ProductID: it.ProductID, LocationID: it.LocationID, Quantity: it.Quantity}] = it
	}

	checked := map[uint]bool{orderLocation: true}
	items := make([]order.Item, 0, len(reqs))
	for _, r := range reqs {
		if r.Quantity <= 0 {
			return nil, order.ErrInvalidQuantity
		}
		if r.ProductID == 0 {
			return nil, order.ErrInvalidOrderItems
		}
		loc := r.LocationID
		if loc == 0 {
			loc = orderLocation
		}
		if !checked[loc] {
			if _, err := locations.RequireActive(ctx, loc); err != nil {
				return nil, err
			}
			checked[loc] = true
		}

		if it, ok := kept[order.Line{ProductID: r.ProductID, LocationID: loc, Quantity: r.Quantity}]; ok {
			it.ID = 0
			items = append(items, it)
			continue
		}

		snap, err := catalog.Lookup(ctx, r.ProductID)
		if err != nil {
			return nil, err
		}
		items = append(items, order.Item{
			ProductID:      snap.ProductID,
			LocationID:     loc,
			ProductName:    snap.Name,
			Quantity:       r.Quantity,
			UnitPrice:      snap.UnitPrice,
			GSTRate:        snap.GSTRate,
			IncentiveType:  snap.IncentiveType,
			IncentiveValue: snap.IncentiveValue,
		})
	}
	return items, nil
}
