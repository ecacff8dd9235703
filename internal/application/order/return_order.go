package order

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/internal/domain/order"
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// ReturnOrderUseCase 退货：已确认/已发货/已送达的订单逐行回补库存
type ReturnOrderUseCase struct {
	orderRepo order.Repository
	stock     *StockCoordinator
	sink      audit.Sink
	logger    *zap.Logger
}

// NewReturnOrderUseCase 创建退货用例
func NewReturnOrderUseCase(orderRepo order.Repository, stock *StockCoordinator, sink audit.Sink, logger *zap.Logger) *ReturnOrderUseCase {
	return &ReturnOrderUseCase{
		orderRepo: orderRepo,
		stock:     stock,
		sink:      sink,
		logger:    logger,
	}
}

// ReturnOrderRequest 退货请求DTO
type ReturnOrderRequest struct {
	OrderNo string
	Reason  string
	Actor   string
}

// Execute 执行退货
func (uc *ReturnOrderUseCase) Execute(ctx context.Context, req ReturnOrderRequest) (resp *OrderResponse, err error) {
	ctx, done := observe(ctx, "return", req.OrderNo)
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

	effect, err := next.TransitionEffect(order.StatusReturned)
	if err != nil {
		return nil, apperrors.WithDetail(order.ErrInvalidStatusTransition, "%s订单不能退货", current.Status)
	}
	if err := next.MarkReturned(req.Reason); err != nil {
		return nil, err
	}

	ops := opsFor(effect, order.Lines(next.Items))
	err = uc.stock.run(ctx, "return_order", next.OrderNo, req.Actor, ops, func(ctx context.Context) error {
		return uc.orderRepo.Update(ctx, next)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("订单已退货",
		zap.String("order_no", next.OrderNo),
		zap.String("from", current.Status.String()),
		zap.String("reason", next.ReturnReason),
		zap.String("actor", req.Actor))
	uc.sink.LogAction(ctx, auditEntry("return", next, req.Actor, map[string]any{
		"from":   current.Status.String(),
		"reason": next.ReturnReason,
	}))

	return toResponse(next), nil
}
