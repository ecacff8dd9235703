package sqlstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/smb-erp/internal/domain/location"
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// locationRepository 库位仓储(GORM)
type locationRepository struct {
	db *gorm.DB
}

// NewLocationRepository 创建库位仓储
func NewLocationRepository(db *gorm.DB) location.Repository {
	return &locationRepository{db: db}
}

func (r *locationRepository) Create(ctx context.Context, loc *location.Location) error {
	model := toLocationModel(loc)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return location.ErrNameDuplicate
		}
		return apperrors.WrapDatabase(err, "创建库位失败")
	}
	loc.ID = model.ID
	loc.CreatedAt = model.CreatedAt
	loc.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *locationRepository) FindByID(ctx context.Context, id uint) (*location.Location, error) {
	var model LocationModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, location.ErrLocationNotFound
		}
		return nil, apperrors.WrapDatabase(err, "查询库位失败")
	}
	return toLocationEntity(&model), nil
}

func (r *locationRepository) FindByName(ctx context.Context, name string) (*location.Location, error) {
	var model LocationModel
	if err := getDB(ctx, r.db).Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, location.ErrLocationNotFound
		}
		return nil, apperrors.WrapDatabase(err, "查询库位失败")
	}
	return toLocationEntity(&model), nil
}

// Update 更新库位
// 教学要点:用map更新，避免GORM忽略零值(Active=false)
func (r *locationRepository) Update(ctx context.Context, loc *location.Location) error {
	res := getDB(ctx, r.db).Model(&LocationModel{}).Where("id = ?", loc.ID).Updates(map[string]interface{}{
		"name":       loc.Name,
		"address":    loc.Address,
		"active":     loc.Active,
		"updated_at": loc.UpdatedAt,
	})
	if res.Error != nil {
		if isDuplicateError(res.Error) {
			return location.ErrNameDuplicate
		}
		return apperrors.WrapDatabase(res.Error, "更新库位失败")
	}
	if res.RowsAffected == 0 {
		return location.ErrLocationNotFound
	}
	return nil
}

func (r *locationRepository) List(ctx context.Context, activeOnly bool) ([]*location.Location, error) {
	query := getDB(ctx, r.db).Model(&LocationModel{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var models []LocationModel
	if err := query.Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.WrapDatabase(err, "查询库位列表失败")
	}
	result := make([]*location.Location, len(models))
	for i := range models {
		result[i] = toLocationEntity(&models[i])
	}
	return result, nil
}

func toLocationModel(l *location.Location) *LocationModel {
	return &LocationModel{
		ID:        l.ID,
		Name:      l.Name,
		Address:   l.Address,
		Active:    l.Active,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func toLocationEntity(m *LocationModel) *location.Location {
	return &location.Location{
		ID:        m.ID,
		Name:      m.Name,
		Address:   m.Address,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
