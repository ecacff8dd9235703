package order

import (
	"context"

	"github.com/xiebiao/smb-erp/internal/domain/order"
)

// GetOrderUseCase 订单详情
type GetOrderUseCase struct {
	orderRepo order.Repository
}

// NewGetOrderUseCase 创建详情查询用例
func NewGetOrderUseCase(orderRepo order.Repository) *GetOrderUseCase {
	return &GetOrderUseCase{orderRepo: orderRepo}
}

// Execute 按订单号查询
func (uc *GetOrderUseCase) Execute(ctx context.Context, orderNo string) (*OrderResponse, error) {
	if _, err := order.ParseOrderNo(orderNo); err != nil {
		return nil, err
	}
	o, err := uc.orderRepo.FindByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	return toResponse(o), nil
}

// ListOrdersUseCase 订单列表
type ListOrdersUseCase struct {
	orderRepo order.Repository
}

// NewListOrdersUseCase 创建列表查询用例
func NewListOrdersUseCase(orderRepo order.Repository) *ListOrdersUseCase {
	return &ListOrdersUseCase{orderRepo: orderRepo}
}

// ListOrdersRequest 列表查询请求DTO
type ListOrdersRequest struct {
	Page       int
	PageSize   int
	LocationID uint
	Status     string // 空表示不过滤
}

// ListOrdersResponse 列表查询响应DTO
type ListOrdersResponse struct {
	List       []*OrderResponse `json:"list"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// Execute 执行列表查询(按创建时间倒序)
func (uc *ListOrdersUseCase) Execute(ctx context.Context, req ListOrdersRequest) (*ListOrdersResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	params := order.ListParams{
		Page:       req.Page,
		PageSize:   req.PageSize,
		LocationID: req.LocationID,
	}
	if req.Status != "" {
		s, err := order.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		params.Status = s
	}

	orders, total, err := uc.orderRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	list := make([]*OrderResponse, len(orders))
	for i, o := range orders {
		list[i] = toResponse(o)
	}

	totalPages := int(total) / req.PageSize
	if int(total)%req.PageSize != 0 {
		totalPages++
	}

	return &ListOrdersResponse{
		List:       list,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}, nil
}
