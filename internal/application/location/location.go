// Package location 库位管理用例
package location

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/internal/domain/location"
)

// LocationResponse 库位DTO
type LocationResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toResponse(l *location.Location) *LocationResponse {
	return &LocationResponse{
		ID:        l.ID,
		Name:      l.Name,
		Address:   l.Address,
		Active:    l.Active,
		CreatedAt: l.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt: l.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ManageLocationUseCase 库位的增改查和停用
// 库位是参考数据，用例很薄：校验交给领域服务，这里负责DTO转换和审计
type ManageLocationUseCase struct {
	service location.Service
	sink    audit.Sink
	logger  *zap.Logger
}

// NewManageLocationUseCase 创建库位用例
func NewManageLocationUseCase(service location.Service, sink audit.Sink, logger *zap.Logger) *ManageLocationUseCase {
	return &ManageLocationUseCase{service: service, sink: sink, logger: logger}
}

// Create 新建库位
func (uc *ManageLocationUseCase) Create(ctx context.Context, name, address, actor string) (*LocationResponse, error) {
	loc, err := uc.service.Create(ctx, name, address)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("库位已创建", zap.Uint("location_id", loc.ID), zap.String("name", loc.Name))
	uc.record(ctx, "create", loc, actor)
	return toResponse(loc), nil
}

// List 列表，activeOnly只返回启用的库位
func (uc *ManageLocationUseCase) List(ctx context.Context, activeOnly bool) ([]*LocationResponse, error) {
	locs, err := uc.service.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]*LocationResponse, len(locs))
	for i, l := range locs {
		out[i] = toResponse(l)
	}
	return out, nil
}

// Get 详情
func (uc *ManageLocationUseCase) Get(ctx context.Context, id uint) (*LocationResponse, error) {
	loc, err := uc.service.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(loc), nil
}

// Update 修改名称和地址
func (uc *ManageLocationUseCase) Update(ctx context.Context, id uint, name, address, actor string) (*LocationResponse, error) {
	loc, err := uc.service.Update(ctx, id, name, address)
	if err != nil {
		return nil, err
	}
	uc.record(ctx, "update", loc, actor)
	return toResponse(loc), nil
}

// Deactivate 停用(幂等)
func (uc *ManageLocationUseCase) Deactivate(ctx context.Context, id uint, actor string) (*LocationResponse, error) {
	loc, err := uc.service.Deactivate(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("库位已停用", zap.Uint("location_id", loc.ID), zap.String("actor", actor))
	uc.record(ctx, "deactivate", loc, actor)
	return toResponse(loc), nil
}

func (uc *ManageLocationUseCase) record(ctx context.Context, action string, loc *location.Location, actor string) {
	uc.sink.LogAction(ctx, audit.Entry{
		Module:      audit.ModuleLocation,
		Action:      action,
		EntityID:    strconv.FormatUint(uint64(loc.ID), 10),
		PerformedBy: actor,
		Details:     map[string]any{"name": loc.Name, "active": loc.Active},
		CreatedAt:   time.Now(),
	})
}
