// Package order 订单生命周期用例
//
// 每个用例的流程相同：
//  1. 按订单号加锁(order:<order_no>)，同一订单的操作串行执行
//  2. 领域模型判断状态流转是否合法，并给出库存影响
//  3. 在库存记录的副本上预演全部台账调用，常见失败不产生任何写入
//  4. 台账调用作为Saga步骤依次执行，订单落库是最后一步；任一步失败逆序补偿
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/internal/domain/inventory"
	"github.com/xiebiao/smb-erp/internal/domain/order"
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
	"github.com/xiebiao/smb-erp/pkg/saga"
)

// Settings 订单用例的运行参数(来自配置order段和inventory段)
type Settings struct {
	SagaTimeout   time.Duration
	LockTimeout   time.Duration // 等待订单锁的上限，与台账的lock_timeout一致
	ClampCounters bool          // 与台账的WithClampCounters保持一致
	NumberRetries int           // 订单号冲突时的最大重试次数
}

// DefaultSettings 默认参数
func DefaultSettings() Settings {
	return Settings{SagaTimeout: 10 * time.Second, LockTimeout: 3 * time.Second, NumberRetries: 3}
}

// ErrCompensationIncomplete 补偿未完成，库存可能与订单不一致
var ErrCompensationIncomplete = apperrors.New(apperrors.ErrCodeInternal, "订单库存补偿未完成，请人工核对")

// ErrOrderBusy 等待订单锁超时
var ErrOrderBusy = apperrors.New(apperrors.ErrCodeInternal, "订单正在处理中，请稍后重试")

// stockOp 一次台账调用
type stockOp struct {
	effect order.StockEffect
	line   order.Line
}

func (op stockOp) key() inventory.Key {
	return inventory.Key{ProductID: op.line.ProductID, LocationID: op.line.LocationID}
}

// opsFor 对每一行生成同一种台账调用
func opsFor(effect order.StockEffect, lines []order.Line) []stockOp {
	if effect == order.EffectNone {
		return nil
	}
	ops := make([]stockOp, 0, len(lines))
	for _, ln := range lines {
		ops = append(ops, stockOp{effect: effect, line: ln})
	}
	return ops
}

// opsForChanges 草稿改单：变化的行先释放旧数量，再预占新数量
func opsForChanges(changes []order.LineChange) []stockOp {
	var ops []stockOp
	for _, c := range changes {
		if c.OldQty > 0 {
			ops = append(ops, stockOp{effect: order.EffectRelease,
				line: order.Line{ProductID: c.ProductID, LocationID: c.LocationID, Quantity: c.OldQty}})
		}
		if c.NewQty > 0 {
			ops = append(ops, stockOp{effect: order.EffectReserve,
				line: order.Line{ProductID: c.ProductID, LocationID: c.LocationID, Quantity: c.NewQty}})
		}
	}
	return ops
}

// StockCoordinator 订单与库存台账之间的协调者
type StockCoordinator struct {
	ledger   inventory.Ledger
	locker   inventory.Locker
	settings Settings
	logger   *zap.Logger
}

// NewStockCoordinator 创建协调者
// locker与台账使用同一个实例(进程内keylock或Redis锁)
func NewStockCoordinator(ledger inventory.Ledger, locker inventory.Locker, settings Settings, logger *zap.Logger) *StockCoordinator {
	if settings.NumberRetries <= 0 {
		settings.NumberRetries = 1
	}
	return &StockCoordinator{
		ledger:   ledger,
		locker:   locker,
		settings: settings,
		logger:   logger,
	}
}

// lockOrder 串行化同一订单上的操作
// 只有等待锁受LockTimeout限制，拿到锁之后的Saga由SagaTimeout控制
func (c *StockCoordinator) lockOrder(ctx context.Context, orderNo string) (func(), error) {
	lockCtx := ctx
	if c.settings.LockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, c.settings.LockTimeout)
		defer cancel()
	}
	unlock, err := c.locker.Lock(lockCtx, "order:"+orderNo)
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, apperrors.WithDetail(ErrOrderBusy, "%s", orderNo)
		}
		return nil, apperrors.Wrapf(err, "获取订单锁失败: %s", orderNo)
	}
	return unlock, nil
}

// precheck 在库存记录副本上按顺序预演全部调用
// 只读不写，预演失败时台账和流水都没有变化
func (c *StockCoordinator) precheck(ctx context.Context, ops []stockOp) error {
	sim := make(map[inventory.Key]*inventory.StockRecord)
	for _, op := range ops {
		k := op.key()
		rec, ok := sim[k]
		if !ok {
			got, err := c.ledger.GetStock(ctx, k)
			switch {
			case err == nil:
				rec = got
			case apperrors.GetAppError(err).Code == apperrors.ErrCodeStockNotFound && op.effect == order.EffectReserve:
				rec = inventory.NewStockRecord(k) // 预占会惰性创建记录
			default:
				return err
			}
			sim[k] = rec
		}

		qty := op.line.Quantity
		var err error
		switch op.effect {
		case order.EffectReserve:
			err = rec.Reserve(qty)
		case order.EffectRelease:
			err = rec.Release(qty, c.settings.ClampCounters)
		case order.EffectConfirm:
			err = rec.Confirm(qty)
		case order.EffectRestore:
			err = rec.Restore(qty, c.settings.ClampCounters)
		}
		if err != nil {
			return apperrors.WithDetail(apperrors.GetAppError(err),
				"商品%d@库位%d 需要%d", op.line.ProductID, op.line.LocationID, qty)
		}
	}
	return nil
}

// apply 执行一次台账调用
func (c *StockCoordinator) apply(ctx context.Context, effect order.StockEffect, k inventory.Key, qty int, ref, actor string) error {
	var err error
	switch effect {
	case order.EffectReserve:
		_, err = c.ledger.Reserve(ctx, k, qty, ref, actor)
	case order.EffectRelease:
		_, err = c.ledger.Release(ctx, k, qty, ref, actor)
	case order.EffectConfirm:
		_, err = c.ledger.Confirm(ctx, k, qty, ref, actor)
	case order.EffectRestore:
		_, err = c.ledger.Restore(ctx, k, qty, ref, actor)
	}
	return err
}

// inverse 每种调用的逆操作序列
//
//	Reserve ⇄ Release
//	Confirm 的逆是 Restore + Reserve
//	Restore 的逆是 Reserve + Confirm
func inverse(effect order.StockEffect) []order.StockEffect {
	switch effect {
	case order.EffectReserve:
		return []order.StockEffect{order.EffectRelease}
	case order.EffectRelease:
		return []order.StockEffect{order.EffectReserve}
	case order.EffectConfirm:
		return []order.StockEffect{order.EffectRestore, order.EffectReserve}
	case order.EffectRestore:
		return []order.StockEffect{order.EffectReserve, order.EffectConfirm}
	}
	return nil
}

func effectName(e order.StockEffect) string {
	switch e {
	case order.EffectReserve:
		return "reserve"
	case order.EffectRelease:
		return "release"
	case order.EffectConfirm:
		return "confirm"
	case order.EffectRestore:
		return "restore"
	}
	return "none"
}

// run 预演通过后以Saga执行全部调用，persist作为最后一步
func (c *StockCoordinator) run(ctx context.Context, name, orderNo, actor string, ops []stockOp, persist func(ctx context.Context) error) error {
	if err := c.precheck(ctx, ops); err != nil {
		return err
	}

	s := saga.NewSaga(c.settings.SagaTimeout,
		saga.WithName(name+":"+orderNo),
		saga.WithLogger(c.logger),
	)
	for _, op := range ops {
		k, qty := op.key(), op.line.Quantity
		s.AddStep(
			fmt.Sprintf("%s %s x%d", effectName(op.effect), k, qty),
			func(ctx context.Context) error {
				return c.apply(ctx, op.effect, k, qty, orderNo, actor)
			},
			func(ctx context.Context) error {
				for _, inv := range inverse(op.effect) {
					if err := c.apply(ctx, inv, k, qty, orderNo, actor); err != nil {
						return err
					}
				}
				return nil
			},
		)
	}
	if persist != nil {
		s.AddStep("persist "+orderNo, persist, nil)
	}

	err := s.Execute(ctx)
	if err == nil {
		return nil
	}
	if saga.IsCompensationError(err) {
		c.logger.Error("订单库存补偿未完成",
			zap.String("saga", name),
			zap.String("order_no", orderNo),
			zap.Error(err))
		return &apperrors.AppError{
			Code:    ErrCompensationIncomplete.Code,
			Message: ErrCompensationIncomplete.Message,
			Err:     err,
		}
	}
	return err
}
