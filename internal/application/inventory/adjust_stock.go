package inventory

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/internal/domain/inventory"
	"github.com/xiebiao/smb-erp/internal/domain/location"
	"github.com/xiebiao/smb-erp/internal/domain/product"
)

// AdjustStockUseCase 管理员手工调整库存
// 台账本身不校验库位和商品，这里先确认二者存在且可用
type AdjustStockUseCase struct {
	ledger    inventory.Ledger
	locations location.Service
	catalog   product.Catalog
	sink      audit.Sink
	settings  Settings
	logger    *zap.Logger
}

// NewAdjustStockUseCase 创建调整用例
func NewAdjustStockUseCase(
	ledger inventory.Ledger,
	locations location.Service,
	catalog product.Catalog,
	sink audit.Sink,
	settings Settings,
	logger *zap.Logger,
) *AdjustStockUseCase {
	return &AdjustStockUseCase{
		ledger:    ledger,
		locations: locations,
		catalog:   catalog,
		sink:      sink,
		settings:  settings,
		logger:    logger,
	}
}

// AdjustStockRequest 调整请求DTO
type AdjustStockRequest struct {
	ProductID  uint
	LocationID uint
	Type       string // INWARD | OUTWARD | ISSUE | ADJUSTMENT
	Quantity   int
	Reference  string
	Reason     string
	Actor      string
}

// Execute 执行调整
// ADJUSTMENT是盘点重置：可用=Quantity，预占和已出库清零
func (uc *AdjustStockUseCase) Execute(ctx context.Context, req AdjustStockRequest) (*StockResponse, error) {
	typ, err := inventory.ParseAdjustType(req.Type)
	if err != nil {
		return nil, err
	}
	if _, err := uc.locations.RequireActive(ctx, req.LocationID); err != nil {
		return nil, err
	}
	if _, err := uc.catalog.Lookup(ctx, req.ProductID); err != nil {
		return nil, err
	}

	key := inventory.Key{ProductID: req.ProductID, LocationID: req.LocationID}
	ref := req.Reference
	if ref == "" {
		ref = "MANUAL"
	}

	var before *inventory.StockRecord
	if typ == inventory.AdjustAdjustment {
		// 只用于日志和审计，记录不存在不算错误
		before, _ = uc.ledger.GetStock(ctx, key)
	}

	rec, err := uc.ledger.AdjustManual(ctx, key, typ, req.Quantity, ref, req.Reason, req.Actor)
	if err != nil {
		return nil, err
	}

	details := map[string]any{
		"type":      string(typ),
		"quantity":  req.Quantity,
		"reference": ref,
		"reason":    req.Reason,
		"available": rec.Available,
	}
	if before != nil && (before.Reserved > 0 || before.Dispatched > 0) {
		uc.logger.Warn("盘点重置清空了预占/已出库数量",
			zap.String("key", key.String()),
			zap.Int("reserved_before", before.Reserved),
			zap.Int("dispatched_before", before.Dispatched),
			zap.String("actor", req.Actor))
		details["reserved_before"] = before.Reserved
		details["dispatched_before"] = before.Dispatched
	}
	uc.sink.LogAction(ctx, stockAudit("adjust", key, req.Actor, details))

	return toStockResponse(rec, uc.settings.threshold()), nil
}
