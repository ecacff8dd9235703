package location

import (
	"context"
)

// Repository 库位仓储接口
type Repository interface {
	// Create 创建库位，名称重复返回ErrNameDuplicate
	Create(ctx context.Context, loc *Location) error

	// FindByID 不存在返回ErrLocationNotFound
	FindByID(ctx context.Context, id uint) (*Location, error)

	// FindByName 不存在返回ErrLocationNotFound
	FindByName(ctx context.Context, name string) (*Location, error)

	// Update 更新名称/地址/启用状态
	Update(ctx context.Context, loc *Location) error

	// List 按ID升序返回；activeOnly为true时只返回启用的库位
	List(ctx context.Context, activeOnly bool) ([]*Location, error)
}
