package order

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/internal/domain/order"
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// ChangeStatusUseCase 订单状态流转和/或支付状态修改
//
//	Draft → Confirmed        逐行Confirm(预占转为已出库)
//	Confirmed → Dispatched → Delivered → Closed   无库存影响
//	→ Returned 走ReturnOrderUseCase(需要原因)
type ChangeStatusUseCase struct {
	orderRepo order.Repository
	stock     *StockCoordinator
	sink      audit.Sink
	logger    *zap.Logger
}

// NewChangeStatusUseCase 创建状态流转用例
func NewChangeStatusUseCase(orderRepo order.Repository, stock *StockCoordinator, sink audit.Sink, logger *zap.Logger) *ChangeStatusUseCase {
	return &ChangeStatusUseCase{
		orderRepo: orderRepo,
		stock:     stock,
		sink:      sink,
		logger:    logger,
	}
}

// ChangeStatusRequest 状态流转请求DTO
// Status和PaymentStatus至少提供一个
type ChangeStatusRequest struct {
	OrderNo       string
	Status        string // 目标状态名，如Confirmed
	PaymentStatus string // Unpaid | Paid | Partial
	Actor         string
}

// Execute 执行状态流转
func (uc *ChangeStatusUseCase) Execute(ctx context.Context, req ChangeStatusRequest) (resp *OrderResponse, err error) {
	ctx, done := observe(ctx, "change_status", req.OrderNo)
	defer func() { done(err) }()

	if req.Status == "" && req.PaymentStatus == "" {
		return nil, apperrors.WithDetail(apperrors.ErrInvalidParams, "status和payment_status至少提供一个")
	}

	var target order.OrderStatus
	if req.Status != "" {
		if target, err = order.ParseStatus(req.Status); err != nil {
			return nil, err
		}
		if target == order.StatusReturned {
			return nil, apperrors.WithDetail(order.ErrInvalidStatusTransition, "退货请使用退货接口")
		}
	}

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

	// 先改支付状态：关闭订单的同时标记已付款是常见操作
	if req.PaymentStatus != "" {
		if err := next.SetPaymentStatus(order.PaymentStatus(req.PaymentStatus)); err != nil {
			return nil, err
		}
	}

	var ops []stockOp
	if target != 0 && target != current.Status {
		effect, err := next.TransitionEffect(target)
		if err != nil {
			return nil, apperrors.WithDetail(order.ErrInvalidStatusTransition, "%s → %s", current.Status, target)
		}
		ops = opsFor(effect, order.Lines(next.Items))
		if err := next.TransitionTo(target); err != nil {
			return nil, err
		}
	} else if target != 0 && req.PaymentStatus == "" {
		return nil, apperrors.WithDetail(order.ErrInvalidStatusTransition, "订单已是%s", target)
	}

	err = uc.stock.run(ctx, "change_status", next.OrderNo, req.Actor, ops, func(ctx context.Context) error {
		return uc.orderRepo.Update(ctx, next)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("订单状态已更新",
		zap.String("order_no", next.OrderNo),
		zap.String("from", current.Status.String()),
		zap.String("to", next.Status.String()),
		zap.String("payment_status", string(next.PaymentStatus)),
		zap.String("actor", req.Actor))
	uc.sink.LogAction(ctx, auditEntry("status_change", next, req.Actor, map[string]any{
		"from":           current.Status.String(),
		"to":             next.Status.String(),
		"payment_status": string(next.PaymentStatus),
	}))

	return toResponse(next), nil
}
