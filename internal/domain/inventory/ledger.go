package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
	applog "github.com/xiebiao/smb-erp/pkg/logger"
	"github.com/xiebiao/smb-erp/pkg/metrics"
	"github.com/xiebiao/smb-erp/pkg/tracing"
)

// AdjustType 手工调整类型
type AdjustType string

const (
	AdjustInward     AdjustType = "INWARD"     // 入库：可用 += qty
	AdjustOutward    AdjustType = "OUTWARD"    // 出库：可用 -= qty
	AdjustIssue      AdjustType = "ISSUE"      // 领用：同OUTWARD
	AdjustAdjustment AdjustType = "ADJUSTMENT" // 盘点：可用 = qty，预占/已出库清零
)

// ParseAdjustType 解析调整类型(不区分大小写)
func ParseAdjustType(s string) (AdjustType, error) {
	t := AdjustType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case AdjustInward, AdjustOutward, AdjustIssue, AdjustAdjustment:
		return t, nil
	}
	return "", apperrors.WithDetail(ErrInvalidAdjustType, "%q", s)
}

// Ledger 库存台账(领域服务接口)
// 设计说明:
//  1. 所有写操作以(商品,库位)为粒度串行化：先拿按键锁，再调用仓储Apply
//  2. 每次成功调用恰好追加一条流水；失败时记录和流水都不变
//  3. 台账不关心订单状态，只执行调用方给出的明确指令
type Ledger interface {
	// Reserve 预占，可用不足返回ErrInsufficientStock；记录不存在时惰性创建
	Reserve(ctx context.Context, key Key, qty int, reference, actor string) (*StockRecord, error)

	// Release 释放预占，记录不存在返回ErrStockNotFound
	Release(ctx context.Context, key Key, qty int, reference, actor string) (*StockRecord, error)

	// Confirm 确认出库，预占不足返回ErrInsufficientReservedStock
	Confirm(ctx context.Context, key Key, qty int, reference, actor string) (*StockRecord, error)

	// Restore 回补(退货、删除已确认订单)
	Restore(ctx context.Context, key Key, qty int, reference, actor string) (*StockRecord, error)

	// AdjustManual 管理员手工调整；记录不存在时惰性创建
	AdjustManual(ctx context.Context, key Key, typ AdjustType, qty int, reference, reason, actor string) (*StockRecord, error)

	// GetStock 查询当前库存，不存在返回ErrStockNotFound
	GetStock(ctx context.Context, key Key) (*StockRecord, error)
}

// LedgerOption 台账选项
type LedgerOption func(*ledger)

// WithClampCounters 释放/回补超出计数时截断为0而不是报错(兼容旧数据)
func WithClampCounters(clamp bool) LedgerOption {
	return func(l *ledger) { l.clamp = clamp }
}

// WithLockTimeout 等锁超时时间，<=0表示只受调用方ctx约束
func WithLockTimeout(d time.Duration) LedgerOption {
	return func(l *ledger) { l.lockTimeout = d }
}

// WithConflictRetries 乐观锁冲突时的重试次数
func WithConflictRetries(n int) LedgerOption {
	return func(l *ledger) { l.conflictRetries = n }
}

// WithLedgerLogger 设置日志器
func WithLedgerLogger(logger *zap.Logger) LedgerOption {
	return func(l *ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

type ledger struct {
	stocks          StockRepository
	locker          Locker
	clamp           bool
	lockTimeout     time.Duration
	conflictRetries int
	logger          *zap.Logger
}

// NewLedger 创建库存台账
func NewLedger(stocks StockRepository, locker Locker, opts ...LedgerOption) Ledger {
	l := &ledger{
		stocks:          stocks,
		locker:          locker,
		lockTimeout:     3 * time.Second,
		conflictRetries: 3,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *ledger) Reserve(ctx context.Context, key Key, qty int, reference, actor string) (*StockRecord, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	return l.mutate(ctx, "reserve", key, true, change(TxReserve, qty, reference, "", actor, func(r *StockRecord) error {
		return r.Reserve(qty)
	}))
}

func (l *ledger) Release(ctx context.Context, key Key, qty int, reference, actor string) (*StockRecord, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	return l.mutate(ctx, "release", key, false, change(TxRelease, qty, reference, "", actor, func(r *StockRecord) error {
		return r.Release(qty, l.clamp)
	}))
}

func (l *ledger) Confirm(ctx context.Context, key Key, qty int, reference, actor string) (*StockRecord, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	return l.mutate(ctx, "confirm", key, false, change(TxOut, qty, reference, "", actor, func(r *StockRecord) error {
		return r.Confirm(qty)
	}))
}

func (l *ledger) Restore(ctx context.Context, key Key, qty int, reference, actor string) (*StockRecord, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	return l.mutate(ctx, "restore", key, false, change(TxInward, qty, reference, "", actor, func(r *StockRecord) error {
		return r.Restore(qty, l.clamp)
	}))
}

func (l *ledger) AdjustManual(ctx context.Context, key Key, typ AdjustType, qty int, reference, reason, actor string) (*StockRecord, error) {
	var m Mutation
	switch typ {
	case AdjustInward:
		if qty <= 0 {
			return nil, ErrInvalidQuantity
		}
		m = change(TxInward, qty, reference, reason, actor, func(r *StockRecord) error {
			r.Inward(qty)
			return nil
		})
	case AdjustOutward, AdjustIssue:
		if qty <= 0 {
			return nil, ErrInvalidQuantity
		}
		m = change(TransactionType(typ), qty, reference, reason, actor, func(r *StockRecord) error {
			return r.Outward(qty)
		})
	case AdjustAdjustment:
		if qty < 0 {
			return nil, apperrors.WithDetail(ErrInvalidQuantity, "盘点数量不能为负")
		}
		m = change(TxAdjustment, qty, reference, reason, actor, func(r *StockRecord) error {
			r.Reset(qty)
			return nil
		})
	default:
		return nil, apperrors.WithDetail(ErrInvalidAdjustType, "%q", string(typ))
	}

	return l.mutate(ctx, "adjust_"+strings.ToLower(string(typ)), key, true, m)
}

func (l *ledger) GetStock(ctx context.Context, key Key) (*StockRecord, error) {
	return l.stocks.Get(ctx, key)
}

// change 把计数器变更包装成Mutation：变更成功后基于新状态生成流水
func change(typ TransactionType, qty int, reference, reason, actor string, apply func(*StockRecord) error) Mutation {
	return func(rec *StockRecord) (*Transaction, error) {
		if err := apply(rec); err != nil {
			return nil, err
		}
		return NewTransaction(rec, typ, qty, reference, reason, actor), nil
	}
}

// mutate 按键加锁后执行一次原子变更
// 乐观锁冲突(多实例且未启用分布式锁时可能出现)会重试，其它错误原样返回
func (l *ledger) mutate(ctx context.Context, op string, key Key, create bool, m Mutation) (rec *StockRecord, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "inventory", "Ledger."+op)
	span.SetAttributes(
		attribute.Int64("product_id", int64(key.ProductID)),
		attribute.Int64("location_id", int64(key.LocationID)),
	)
	defer func() {
		tracing.RecordError(span, err)
		span.End()
		metrics.ObserveLedgerOp(op, resultLabel(err), time.Since(start))
	}()

	lockCtx := ctx
	if l.lockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, l.lockTimeout)
		defer cancel()
	}
	unlock, err := l.locker.Lock(lockCtx, key.String())
	if err != nil {
		return nil, lockError(key, err)
	}
	defer unlock()

	log := applog.WithContext(ctx, l.logger)
	for attempt := 0; ; attempt++ {
		rec, err = l.stocks.Apply(ctx, key, create, m)
		if errors.Is(err, ErrConcurrentUpdate) && attempt < l.conflictRetries {
			log.Debug("库存版本冲突，重试", zap.String("key", key.String()), zap.Int("attempt", attempt+1))
			continue
		}
		break
	}

	if err != nil {
		if apperrors.IsBusiness(err) {
			log.Info("库存操作被拒绝", zap.String("op", op), zap.String("key", key.String()), zap.Error(err))
		} else {
			log.Error("库存操作失败", zap.String("op", op), zap.String("key", key.String()), zap.Error(err))
		}
		return nil, err
	}

	log.Debug("库存操作成功",
		zap.String("op", op),
		zap.String("key", key.String()),
		zap.Int("available", rec.Available),
		zap.Int("reserved", rec.Reserved),
		zap.Int("dispatched", rec.Dispatched),
	)
	return rec, nil
}

func lockError(key Key, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.WithDetail(ErrLockTimeout, "%s", key)
	}
	return apperrors.Wrapf(err, "获取库存锁失败: %s", key)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInsufficientReservedStock),
		errors.Is(err, ErrInsufficientDispatchedStock):
		return "insufficient"
	case errors.Is(err, ErrStockNotFound):
		return "not_found"
	case apperrors.IsBusiness(err):
		return "invalid"
	default:
		return "error"
	}
}
