package inventory

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/internal/domain/inventory"
)

// DeleteStockUseCase 管理员删除库存记录
// 不检查是否仍有订单引用该记录；流水保留
type DeleteStockUseCase struct {
	stocks inventory.StockRepository
	locker inventory.Locker
	sink   audit.Sink
	logger *zap.Logger
}

// NewDeleteStockUseCase 创建删除用例
func NewDeleteStockUseCase(stocks inventory.StockRepository, locker inventory.Locker, sink audit.Sink, logger *zap.Logger) *DeleteStockUseCase {
	return &DeleteStockUseCase{stocks: stocks, locker: locker, sink: sink, logger: logger}
}

// Execute 删除记录
func (uc *DeleteStockUseCase) Execute(ctx context.Context, productID, locationID uint, actor string) error {
	key := inventory.Key{ProductID: productID, LocationID: locationID}

	unlock, err := uc.locker.Lock(ctx, key.String())
	if err != nil {
		return err
	}
	defer unlock()

	rec, err := uc.stocks.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := uc.stocks.Delete(ctx, key); err != nil {
		return err
	}

	uc.logger.Warn("库存记录已被删除",
		zap.String("key", key.String()),
		zap.Int("available", rec.Available),
		zap.Int("reserved", rec.Reserved),
		zap.Int("dispatched", rec.Dispatched),
		zap.String("actor", actor))
	uc.sink.LogAction(ctx, stockAudit("delete", key, actor, map[string]any{
		"available":  rec.Available,
		"reserved":   rec.Reserved,
		"dispatched": rec.Dispatched,
	}))
	return nil
}
