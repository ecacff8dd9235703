package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/xiebiao/smb-erp/internal/domain/inventory"
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// GetStockUseCase 查询单个库存记录
type GetStockUseCase struct {
	ledger   inventory.Ledger
	settings Settings
}

// NewGetStockUseCase 创建查询用例
func NewGetStockUseCase(ledger inventory.Ledger, settings Settings) *GetStockUseCase {
	return &GetStockUseCase{ledger: ledger, settings: settings}
}

// Execute 查询，记录不存在返回ErrStockNotFound
func (uc *GetStockUseCase) Execute(ctx context.Context, productID, locationID uint) (*StockResponse, error) {
	rec, err := uc.ledger.GetStock(ctx, inventory.Key{ProductID: productID, LocationID: locationID})
	if err != nil {
		return nil, err
	}
	return toStockResponse(rec, uc.settings.threshold()), nil
}

// ListStockUseCase 库存列表(带派生状态)
type ListStockUseCase struct {
	stocks   inventory.StockRepository
	settings Settings
}

// NewListStockUseCase 创建列表用例
func NewListStockUseCase(stocks inventory.StockRepository, settings Settings) *ListStockUseCase {
	return &ListStockUseCase{stocks: stocks, settings: settings}
}

// ListStockRequest 列表请求DTO
type ListStockRequest struct {
	ProductID  uint
	LocationID uint
	Page       int
	PageSize   int
}

// ListStockResponse 列表响应DTO
type ListStockResponse struct {
	List     []*StockResponse `json:"list"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// Execute 执行列表查询
func (uc *ListStockUseCase) Execute(ctx context.Context, req ListStockRequest) (*ListStockResponse, error) {
	req.Page, req.PageSize = normalizePage(req.Page, req.PageSize)

	recs, total, err := uc.stocks.List(ctx, inventory.StockFilter{
		ProductID:  req.ProductID,
		LocationID: req.LocationID,
	}, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}

	list := make([]*StockResponse, len(recs))
	for i, r := range recs {
		list[i] = toStockResponse(r, uc.settings.threshold())
	}
	return &ListStockResponse{List: list, Total: total, Page: req.Page, PageSize: req.PageSize}, nil
}

// ListTransactionsUseCase 库存流水列表(倒序)
type ListTransactionsUseCase struct {
	log *inventory.TransactionLog
}

// NewListTransactionsUseCase 创建流水查询用例
func NewListTransactionsUseCase(log *inventory.TransactionLog) *ListTransactionsUseCase {
	return &ListTransactionsUseCase{log: log}
}

// ListTransactionsRequest 流水查询请求DTO
type ListTransactionsRequest struct {
	ProductID  uint
	LocationID uint
	Type       string
	Reference  string
	From       time.Time
	To         time.Time
	Page       int
	PageSize   int
}

// ListTransactionsResponse 流水查询响应DTO
type ListTransactionsResponse struct {
	List     []TransactionResponse `json:"list"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

// Execute 执行流水查询
func (uc *ListTransactionsUseCase) Execute(ctx context.Context, req ListTransactionsRequest) (*ListTransactionsResponse, error) {
	req.Page, req.PageSize = normalizePage(req.Page, req.PageSize)

	filter := inventory.TransactionFilter{
		ProductID:  req.ProductID,
		LocationID: req.LocationID,
		Reference:  req.Reference,
		From:       req.From,
		To:         req.To,
	}
	if req.Type != "" {
		t := inventory.TransactionType(strings.ToUpper(req.Type))
		if !t.Valid() {
			return nil, apperrors.WithDetail(apperrors.ErrInvalidParams, "未知的流水类型 %q", req.Type)
		}
		filter.Type = t
	}

	txs, total, err := uc.log.List(ctx, filter, req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}
	list := make([]TransactionResponse, len(txs))
	for i, tx := range txs {
		list[i] = toTransactionResponse(tx)
	}
	return &ListTransactionsResponse{List: list, Total: total, Page: req.Page, PageSize: req.PageSize}, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
