package location

import (
	"context"
	"errors"
	"unicode/utf8"
)

// Service 库位目录领域服务
type Service interface {
	// Create 创建库位
	// 业务规则:名称必填、不超过100字符、不能重复
	Create(ctx context.Context, name, address string) (*Location, error)

	// List 查询库位列表
	List(ctx context.Context, activeOnly bool) ([]*Location, error)

	// Get 根据ID获取库位
	Get(ctx context.Context, id uint) (*Location, error)

	// Update 修改名称/地址，改名时同样校验唯一
	Update(ctx context.Context, id uint, name, address string) (*Location, error)

	// Deactivate 停用库位(幂等)
	Deactivate(ctx context.Context, id uint) (*Location, error)

	// RequireActive 校验库位存在且启用(订单和库存调整前调用)
	RequireActive(ctx context.Context, id uint) (*Location, error)
}

type service struct {
	repo Repository
}

// NewService 创建库位领域服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, name, address string) (*Location, error) {
	loc := NewLocation(name, address)
	if !validName(loc.Name) {
		return nil, ErrInvalidName
	}
	if err := s.ensureNameFree(ctx, loc.Name, 0); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, loc); err != nil {
		return nil, err
	}
	return loc, nil
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]*Location, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *service) Get(ctx context.Context, id uint) (*Location, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) Update(ctx context.Context, id uint, name, address string) (*Location, error) {
	loc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldName := loc.Name
	loc.Rename(name, address)
	if !validName(loc.Name) {
		return nil, ErrInvalidName
	}
	if loc.Name != oldName {
		if err := s.ensureNameFree(ctx, loc.Name, loc.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, loc); err != nil {
		return nil, err
	}
	return loc, nil
}

func (s *service) Deactivate(ctx context.Context, id uint) (*Location, error) {
	loc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !loc.Active {
		return loc, nil
	}
	loc.Deactivate()
	if err := s.repo.Update(ctx, loc); err != nil {
		return nil, err
	}
	return loc, nil
}

func (s *service) RequireActive(ctx context.Context, id uint) (*Location, error) {
	loc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !loc.Active {
		return nil, ErrLocationInactive
	}
	return loc, nil
}

// ensureNameFree 名称被其它库位占用时返回ErrNameDuplicate
// 仓储层的唯一索引兜底并发创建
func (s *service) ensureNameFree(ctx context.Context, name string, selfID uint) error {
	existing, err := s.repo.FindByName(ctx, name)
	if err == nil && existing.ID != selfID {
		return ErrNameDuplicate
	}
	if err != nil && !errors.Is(err, ErrLocationNotFound) {
		return err
	}
	return nil
}

func validName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n > 0 && n <= 100
}
