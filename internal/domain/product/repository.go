package product

import (
	"context"
)

// Repository 商品仓储接口
type Repository interface {
	Create(ctx context.Context, p *Product) error

	// FindByID 不存在返回ErrProductNotFound
	FindByID(ctx context.Context, id uint) (*Product, error)

	// Update 保存资料和状态，不存在返回ErrProductNotFound
	Update(ctx context.Context, p *Product) error

	// FindBySKU 不存在返回ErrProductNotFound
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// List 分页查询(按ID升序)
	List(ctx context.Context, params ListParams) ([]*Product, int64, error)
}

// ListParams 列表查询参数
type ListParams struct {
	Page       int
	PageSize   int
	Keyword    string // 匹配名称或编码
	ActiveOnly bool   // 只看在售商品
	Status     Status // 按状态过滤，优先于ActiveOnly
}
