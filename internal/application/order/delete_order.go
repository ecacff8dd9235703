package order

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/internal/domain/order"
)

// DeleteOrderUseCase 删除订单
// 草稿释放预占；已确认及之后(含已关闭)回补已出库；已退货的库存已回补过，不再操作台账
type DeleteOrderUseCase struct {
	orderRepo order.Repository
	stock     *StockCoordinator
	sink      audit.Sink
	logger    *zap.Logger
}

// NewDeleteOrderUseCase 创建删单用例
func NewDeleteOrderUseCase(orderRepo order.Repository, stock *StockCoordinator, sink audit.Sink, logger *zap.Logger) *DeleteOrderUseCase {
	return &DeleteOrderUseCase{
		orderRepo: orderRepo,
		stock:     stock,
		sink:      sink,
		logger:    logger,
	}
}

// DeleteOrderRequest 删单请求DTO
type DeleteOrderRequest struct {
	OrderNo string
	Actor   string
}

// Execute 执行删单
func (uc *DeleteOrderUseCase) Execute(ctx context.Context, req DeleteOrderRequest) (err error) {
	ctx, done := observe(ctx, "delete", req.OrderNo)
	defer func() { done(err) }()

	unlock, err := uc.stock.lockOrder(ctx, req.OrderNo)
	if err != nil {
		return err
	}
	defer unlock()

	current, err := uc.orderRepo.FindByOrderNo(ctx, req.OrderNo)
	if err != nil {
		return err
	}

	ops := opsFor(current.DeleteEffect(), order.Lines(current.Items))
	err = uc.stock.run(ctx, "delete_order", current.OrderNo, req.Actor, ops, func(ctx context.Context) error {
		return uc.orderRepo.Delete(ctx, current.OrderNo)
	})
	if err != nil {
		return err
	}

	uc.logger.Info("订单已删除",
		zap.String("order_no", current.OrderNo),
		zap.String("status", current.Status.String()),
		zap.Int("ledger_calls", len(ops)),
		zap.String("actor", req.Actor))
	uc.sink.LogAction(ctx, auditEntry("delete", current, req.Actor, nil))
	return nil
}
