package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/internal/domain/inventory"
	"github.com/xiebiao/smb-erp/internal/domain/location"
	"github.com/xiebiao/smb-erp/internal/domain/product"
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
	"github.com/xiebiao/smb-erp/pkg/saga"
)

// ErrSameLocation 调拨源和目标相同
var ErrSameLocation = apperrors.New(apperrors.ErrCodeInvalidOperation, "调拨的源库位和目标库位不能相同")

// TransferStockUseCase 两库位之间调拨
// 源库位OUTWARD、目标库位INWARD，引用为TRANSFER:<src>-><dst>；
// 目标入库失败时给源库位补回INWARD
type TransferStockUseCase struct {
	ledger    inventory.Ledger
	locations location.Service
	catalog   product.Catalog
	sink      audit.Sink
	settings  Settings
	logger    *zap.Logger
}

// NewTransferStockUseCase 创建调拨用例
func NewTransferStockUseCase(
	ledger inventory.Ledger,
	locations location.Service,
	catalog product.Catalog,
	sink audit.Sink,
	settings Settings,
	logger *zap.Logger,
) *TransferStockUseCase {
	return &TransferStockUseCase{
		ledger:    ledger,
		locations: locations,
		catalog:   catalog,
		sink:      sink,
		settings:  settings,
		logger:    logger,
	}
}

// TransferStockRequest 调拨请求DTO
type TransferStockRequest struct {
	ProductID      uint
	FromLocationID uint
	ToLocationID   uint
	Quantity       int
	Reason         string
	Actor          string
}

// TransferStockResponse 调拨后两端的库存
type TransferStockResponse struct {
	Reference string         `json:"reference"`
	From      *StockResponse `json:"from"`
	To        *StockResponse `json:"to"`
}

// Execute 执行调拨
func (uc *TransferStockUseCase) Execute(ctx context.Context, req TransferStockRequest) (*TransferStockResponse, error) {
	if req.Quantity <= 0 {
		return nil, inventory.ErrInvalidQuantity
	}
	if req.FromLocationID == req.ToLocationID {
		return nil, ErrSameLocation
	}
	for _, id := range []uint{req.FromLocationID, req.ToLocationID} {
		if _, err := uc.locations.RequireActive(ctx, id); err != nil {
			return nil, err
		}
	}
	if _, err := uc.catalog.Lookup(ctx, req.ProductID); err != nil {
		return nil, err
	}

	src := inventory.Key{ProductID: req.ProductID, LocationID: req.FromLocationID}
	dst := inventory.Key{ProductID: req.ProductID, LocationID: req.ToLocationID}
	ref := fmt.Sprintf("TRANSFER:%d->%d", req.FromLocationID, req.ToLocationID)

	var from, to *inventory.StockRecord
	s := saga.NewSaga(uc.settings.sagaTimeout(), saga.WithName("transfer:"+ref), saga.WithLogger(uc.logger))
	s.AddStep("outward "+src.String(),
		func(ctx context.Context) error {
			rec, err := uc.ledger.AdjustManual(ctx, src, inventory.AdjustOutward, req.Quantity, ref, req.Reason, req.Actor)
			from = rec
			return err
		},
		func(ctx context.Context) error {
			rec, err := uc.ledger.AdjustManual(ctx, src, inventory.AdjustInward, req.Quantity, ref, "调拨失败回退", req.Actor)
			from = rec
			return err
		},
	)
	s.AddStep("inward "+dst.String(),
		func(ctx context.Context) error {
			rec, err := uc.ledger.AdjustManual(ctx, dst, inventory.AdjustInward, req.Quantity, ref, req.Reason, req.Actor)
			to = rec
			return err
		},
		nil,
	)

	if err := s.Execute(ctx); err != nil {
		if saga.IsCompensationError(err) {
			uc.logger.Error("调拨回退失败，源库位数量需要人工核对", zap.String("reference", ref), zap.Error(err))
			return nil, apperrors.Wrapf(err, "调拨回退失败: %s", ref)
		}
		return nil, err
	}

	uc.logger.Info("库存已调拨",
		zap.String("reference", ref),
		zap.Uint("product_id", req.ProductID),
		zap.Int("quantity", req.Quantity),
		zap.String("actor", req.Actor))
	uc.sink.LogAction(ctx, stockAudit("transfer", src, req.Actor, map[string]any{
		"to_location_id": req.ToLocationID,
		"quantity":       req.Quantity,
		"reference":      ref,
	}))

	threshold := uc.settings.threshold()
	return &TransferStockResponse{
		Reference: ref,
		From:      toStockResponse(from, threshold),
		To:        toStockResponse(to, threshold),
	}, nil
}
