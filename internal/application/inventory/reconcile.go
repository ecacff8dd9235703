package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/internal/domain/inventory"
	applog "github.com/xiebiao/smb-erp/pkg/logger"
)

// ReconcileStockUseCase 库存记录与流水对账
//
// 教学要点：
//  1. 每条流水都带变更后的三个计数，最新一条流水就是记录应有的样子
//  2. 流水可能很多，用TransactionLog.Query按游标分批读取，不一次性加载
//  3. 相邻两条流水的快照之差应与后一条的类型和数量相符
type ReconcileStockUseCase struct {
	ledger   inventory.Ledger
	log      *inventory.TransactionLog
	settings Settings
	logger   *zap.Logger
}

// NewReconcileStockUseCase 创建对账用例
func NewReconcileStockUseCase(ledger inventory.Ledger, log *inventory.TransactionLog, settings Settings, logger *zap.Logger) *ReconcileStockUseCase {
	return &ReconcileStockUseCase{ledger: ledger, log: log, settings: settings, logger: logger}
}

// ReconcileResponse 对账结果DTO
type ReconcileResponse struct {
	Stock        *StockResponse       `json:"stock"`
	Transactions int                  `json:"transactions"`
	Latest       *TransactionResponse `json:"latest,omitempty"`
	Consistent   bool                 `json:"consistent"`
	Mismatches   []string             `json:"mismatches,omitempty"`
}

// Execute 对一个(商品, 库位)对账，只读不修复
func (uc *ReconcileStockUseCase) Execute(ctx context.Context, productID, locationID uint) (*ReconcileResponse, error) {
	key := inventory.Key{ProductID: productID, LocationID: locationID}
	rec, err := uc.ledger.GetStock(ctx, key)
	if err != nil {
		return nil, err
	}

	resp := &ReconcileResponse{Stock: toStockResponse(rec, uc.settings.threshold())}

	// Query按时间倒序，newer是上一轮迭代拿到的较新一条
	var newer *inventory.Transaction
	filter := inventory.TransactionFilter{ProductID: productID, LocationID: locationID}
	for tx, err := range uc.log.Query(ctx, filter) {
		if err != nil {
			return nil, err
		}
		resp.Transactions++
		if newer == nil {
			latest := toTransactionResponse(tx)
			resp.Latest = &latest
			resp.Mismatches = append(resp.Mismatches, compareSnapshot(rec, tx)...)
		} else if msg := checkStep(tx, newer); msg != "" {
			resp.Mismatches = append(resp.Mismatches, msg)
		}
		newer = tx
	}

	if resp.Transactions == 0 && rec.Current() != 0 {
		resp.Mismatches = append(resp.Mismatches, "记录有库存但没有任何流水")
	}
	resp.Consistent = len(resp.Mismatches) == 0

	if !resp.Consistent {
		applog.WithContext(ctx, uc.logger).Warn("库存对账不一致",
			zap.String("key", key.String()),
			zap.Strings("mismatches", resp.Mismatches),
		)
	}
	return resp, nil
}

func compareSnapshot(rec *inventory.StockRecord, latest *inventory.Transaction) []string {
	var out []string
	if rec.Available != latest.AvailableAfter {
		out = append(out, fmt.Sprintf("可用量: 记录%d, 最新流水#%d为%d", rec.Available, latest.ID, latest.AvailableAfter))
	}
	if rec.Reserved != latest.ReservedAfter {
		out = append(out, fmt.Sprintf("预占量: 记录%d, 最新流水#%d为%d", rec.Reserved, latest.ID, latest.ReservedAfter))
	}
	if rec.Dispatched != latest.DispatchedAfter {
		out = append(out, fmt.Sprintf("已出库: 记录%d, 最新流水#%d为%d", rec.Dispatched, latest.ID, latest.DispatchedAfter))
	}
	return out
}

// checkStep 检查prev到next两个快照之间的变化能否由next的类型和数量解释
// 截断模式下释放/回补扣减的预占或已出库可能少于数量，可用量仍按全数增加。
// 记录被删除后重建会在断点处报告不连贯
func checkStep(prev, next *inventory.Transaction) string {
	da := next.AvailableAfter - prev.AvailableAfter
	dr := next.ReservedAfter - prev.ReservedAfter
	dd := next.DispatchedAfter - prev.DispatchedAfter
	q := next.Quantity

	ok := true
	switch next.Type {
	case inventory.TxReserve:
		ok = da == -q && dr == q && dd == 0
	case inventory.TxRelease:
		ok = da == q && dd == 0 && dr <= 0 && dr >= -q
	case inventory.TxOut:
		ok = da == 0 && dr == -q && dd == q
	case inventory.TxInward:
		// 手工入库时dd为0，退货回补时从已出库扣回
		ok = da == q && dr == 0 && dd <= 0 && dd >= -q
	case inventory.TxOutward, inventory.TxIssue:
		ok = da == -q && dr == 0 && dd == 0
	case inventory.TxAdjustment:
		ok = next.AvailableAfter == q && next.ReservedAfter == 0 && next.DispatchedAfter == 0
	}
	if ok {
		return ""
	}
	return fmt.Sprintf("流水#%d(%s %d)与前一条#%d的快照不连贯", next.ID, next.Type, q, prev.ID)
}
