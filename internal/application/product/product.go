// Package product 商品管理用例
package product

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/internal/domain/product"
)

// ProductResponse 商品DTO
type ProductResponse struct {
	ID             uint            `json:"id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	GSTRate        decimal.Decimal `json:"gst_rate"`
	IncentiveType  string          `json:"incentive_type"`
	IncentiveValue decimal.Decimal `json:"incentive_value"`
	Status         string          `json:"status"`
	Active         bool            `json:"active"`
	CreatedAt      string          `json:"created_at"`
	UpdatedAt      string          `json:"updated_at"`
}

func toResponse(p *product.Product) *ProductResponse {
	return &ProductResponse{
		ID:             p.ID,
		SKU:            p.SKU,
		Name:           p.Name,
		Price:          p.Price,
		GSTRate:        p.GSTRate,
		IncentiveType:  p.IncentiveType,
		IncentiveValue: p.IncentiveValue,
		Status:         string(p.Status),
		Active:         p.IsActive(),
		CreatedAt:      p.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:      p.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// RegisterProductUseCase 新建商品
type RegisterProductUseCase struct {
	service product.Service
	sink    audit.Sink
	logger  *zap.Logger
}

// NewRegisterProductUseCase 创建商品注册用例
func NewRegisterProductUseCase(service product.Service, sink audit.Sink, logger *zap.Logger) *RegisterProductUseCase {
	return &RegisterProductUseCase{service: service, sink: sink, logger: logger}
}

// RegisterProductRequest 注册请求DTO
type RegisterProductRequest struct {
	SKU            string
	Name           string
	Price          decimal.Decimal
	GSTRate        decimal.Decimal
	IncentiveType  string
	IncentiveValue decimal.Decimal
	Actor          string
}

// Execute 执行注册
func (uc *RegisterProductUseCase) Execute(ctx context.Context, req RegisterProductRequest) (*ProductResponse, error) {
	p, err := uc.service.Register(ctx, req.SKU, req.Name, req.Price, req.GSTRate, req.IncentiveType, req.IncentiveValue)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("商品已注册", zap.Uint("product_id", p.ID), zap.String("sku", p.SKU))
	uc.sink.LogAction(ctx, audit.Entry{
		Module:      audit.ModuleProduct,
		Action:      "create",
		EntityID:    p.SKU,
		PerformedBy: req.Actor,
		Details: map[string]any{
			"name":  p.Name,
			"price": p.Price.StringFixed(2),
		},
		CreatedAt: time.Now(),
	})
	return toResponse(p), nil
}

// ManageProductUseCase 修改商品资料和状态
type ManageProductUseCase struct {
	service product.Service
	sink    audit.Sink
	logger  *zap.Logger
}

// NewManageProductUseCase 创建商品维护用例
func NewManageProductUseCase(service product.Service, sink audit.Sink, logger *zap.Logger) *ManageProductUseCase {
	return &ManageProductUseCase{service: service, sink: sink, logger: logger}
}

// UpdateProductRequest 修改请求DTO，nil字段不修改
type UpdateProductRequest struct {
	ID             uint
	Name           *string
	Price          *decimal.Decimal
	GSTRate        *decimal.Decimal
	IncentiveType  *string
	IncentiveValue *decimal.Decimal
	Actor          string
}

// Update 修改资料
// 已有订单保存的是下单时的快照，改价只影响之后的新订单
func (uc *ManageProductUseCase) Update(ctx context.Context, req UpdateProductRequest) (*ProductResponse, error) {
	before, err := uc.service.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	p, err := uc.service.Update(ctx, req.ID, product.Changes{
		Name:           req.Name,
		Price:          req.Price,
		GSTRate:        req.GSTRate,
		IncentiveType:  req.IncentiveType,
		IncentiveValue: req.IncentiveValue,
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("商品已修改", zap.Uint("product_id", p.ID), zap.String("sku", p.SKU))
	uc.sink.LogAction(ctx, audit.Entry{
		Module:      audit.ModuleProduct,
		Action:      "update",
		EntityID:    p.SKU,
		PerformedBy: req.Actor,
		Details: map[string]any{
			"old_price": before.Price.StringFixed(2),
			"price":     p.Price.StringFixed(2),
			"gst_rate":  p.GSTRate.String(),
		},
		CreatedAt: time.Now(),
	})
	return toResponse(p), nil
}

// ChangeStatusRequest 状态变更请求DTO
type ChangeStatusRequest struct {
	ID     uint
	Status string
	Actor  string
}

// ChangeStatus 在售/暂停/停产
func (uc *ManageProductUseCase) ChangeStatus(ctx context.Context, req ChangeStatusRequest) (*ProductResponse, error) {
	p, err := uc.service.ChangeStatus(ctx, req.ID, product.Status(req.Status))
	if err != nil {
		return nil, err
	}

	uc.logger.Info("商品状态已变更", zap.Uint("product_id", p.ID), zap.String("status", string(p.Status)))
	uc.sink.LogAction(ctx, audit.Entry{
		Module:      audit.ModuleProduct,
		Action:      "status",
		EntityID:    p.SKU,
		PerformedBy: req.Actor,
		Details:     map[string]any{"status": string(p.Status)},
		CreatedAt:   time.Now(),
	})
	return toResponse(p), nil
}

// QueryProductUseCase 商品查询
type QueryProductUseCase struct {
	service product.Service
}

// NewQueryProductUseCase 创建查询用例
func NewQueryProductUseCase(service product.Service) *QueryProductUseCase {
	return &QueryProductUseCase{service: service}
}

// Get 详情
func (uc *QueryProductUseCase) Get(ctx context.Context, id uint) (*ProductResponse, error) {
	p, err := uc.service.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(p), nil
}

// ListProductsResponse 列表响应DTO
type ListProductsResponse struct {
	List     []*ProductResponse `json:"list"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// List 分页列表
func (uc *QueryProductUseCase) List(ctx context.Context, params product.ListParams) (*ListProductsResponse, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	items, total, err := uc.service.List(ctx, params)
	if err != nil {
		return nil, err
	}
	list := make([]*ProductResponse, len(items))
	for i, p := range items {
		list[i] = toResponse(p)
	}
	return &ListProductsResponse{List: list, Total: total, Page: params.Page, PageSize: params.PageSize}, nil
}
