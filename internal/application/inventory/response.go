// Package inventory 库存管理用例(手工调整、调拨、查询、清理)
package inventory

import (
	"time"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/internal/domain/inventory"
)

const timeLayout = "2006-01-02 15:04:05"

// StockResponse 库存记录DTO(含派生的Current和Status)
type StockResponse struct {
	ProductID  uint   `json:"product_id"`
	LocationID uint   `json:"location_id"`
	Available  int    `json:"available"`
	Reserved   int    `json:"reserved"`
	Dispatched int    `json:"dispatched"`
	Current    int    `json:"current"`
	Status     string `json:"status"`
	UpdatedAt  string `json:"updated_at"`
}

func toStockResponse(rec *inventory.StockRecord, threshold int) *StockResponse {
	return &StockResponse{
		ProductID:  rec.ProductID,
		LocationID: rec.LocationID,
		Available:  rec.Available,
		Reserved:   rec.Reserved,
		Dispatched: rec.Dispatched,
		Current:    rec.Current(),
		Status:     string(rec.Status(threshold)),
		UpdatedAt:  rec.UpdatedAt.Format(timeLayout),
	}
}

// TransactionResponse 库存流水DTO
type TransactionResponse struct {
	ID              uint   `json:"id"`
	ProductID       uint   `json:"product_id"`
	LocationID      uint   `json:"location_id"`
	Type            string `json:"type"`
	Quantity        int    `json:"quantity"`
	Reference       string `json:"reference"`
	Reason          string `json:"reason,omitempty"`
	Actor           string `json:"actor"`
	AvailableAfter  int    `json:"available_after"`
	ReservedAfter   int    `json:"reserved_after"`
	DispatchedAfter int    `json:"dispatched_after"`
	CreatedAt       string `json:"created_at"`
}

func toTransactionResponse(tx *inventory.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		ProductID:       tx.ProductID,
		LocationID:      tx.LocationID,
		Type:            string(tx.Type),
		Quantity:        tx.Quantity,
		Reference:       tx.Reference,
		Reason:          tx.Reason,
		Actor:           tx.Actor,
		AvailableAfter:  tx.AvailableAfter,
		ReservedAfter:   tx.ReservedAfter,
		DispatchedAfter: tx.DispatchedAfter,
		CreatedAt:       tx.CreatedAt.Format(timeLayout),
	}
}

// Settings 库存用例参数
type Settings struct {
	LowStockThreshold int
	SagaTimeout       time.Duration // 调拨Saga的超时，与订单共用order.saga_timeout
}

// DefaultSagaTimeout 未配置时的调拨超时
const DefaultSagaTimeout = 10 * time.Second

func (s Settings) sagaTimeout() time.Duration {
	if s.SagaTimeout <= 0 {
		return DefaultSagaTimeout
	}
	return s.SagaTimeout
}

func (s Settings) threshold() int {
	if s.LowStockThreshold <= 0 {
		return inventory.DefaultLowStockThreshold
	}
	return s.LowStockThreshold
}

func stockAudit(action string, key inventory.Key, actor string, details map[string]any) audit.Entry {
	if details == nil {
		details = map[string]any{}
	}
	details["product_id"] = key.ProductID
	details["location_id"] = key.LocationID
	return audit.Entry{
		Module:      audit.ModuleInventory,
		Action:      action,
		EntityID:    key.String(),
		PerformedBy: actor,
		Details:     details,
		CreatedAt:   time.Now(),
	}
}
