package product

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Catalog 商品目录(订单侧只读视图)
type Catalog interface {
	// Lookup 查询启用中的商品快照，不存在或已下架返回ErrProductNotFound
	Lookup(ctx context.Context, id uint) (Snapshot, error)
}

// Service 商品领域服务
type Service interface {
	Catalog

	// Register 登记商品
	// 业务规则:
	// - 编码和名称必填，编码不能重复
	// - 价格、优惠金额不能为负，税率在0-100之间
	Register(ctx context.Context, sku, name string, price, gstRate decimal.Decimal, incentiveType string, incentiveValue decimal.Decimal) (*Product, error)

	Get(ctx context.Context, id uint) (*Product, error)

	// Update 修改名称、价格、税率和优惠；编码不可改
	Update(ctx context.Context, id uint, changes Changes) (*Product, error)

	// ChangeStatus 在售/暂停/停产之间切换，非在售商品不能再下单
	ChangeStatus(ctx context.Context, id uint, status Status) (*Product, error)

	List(ctx context.Context, params ListParams) ([]*Product, int64, error)
}

type service struct {
	repo Repository
}

// NewService 创建商品领域服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, sku, name string, price, gstRate decimal.Decimal, incentiveType string, incentiveValue decimal.Decimal) (*Product, error) {
	p := NewProduct(sku, name, price, gstRate, incentiveType, incentiveValue)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindBySKU(ctx, p.SKU)
	if err == nil && existing != nil {
		return nil, ErrSKUDuplicate
	}
	if err != nil && !errors.Is(err, ErrProductNotFound) {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, id uint) (*Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) Update(ctx context.Context, id uint, changes Changes) (*Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Apply(changes); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) ChangeStatus(ctx context.Context, id uint, status Status) (*Product, error) {
	if !status.Valid() {
		return nil, invalidStatus(status)
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.ChangeStatus(status); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) List(ctx context.Context, params ListParams) ([]*Product, int64, error) {
	return s.repo.List(ctx, params)
}

func (s *service) Lookup(ctx context.Context, id uint) (Snapshot, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	if !p.IsActive() {
		return Snapshot{}, ErrProductNotFound
	}
	return p.Snapshot(), nil
}
