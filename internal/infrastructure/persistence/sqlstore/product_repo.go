package sqlstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/smb-erp/internal/domain/product"
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// productRepository 商品仓储(GORM)
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, p *product.Product) error {
	model := toProductModel(p)
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return product.ErrSKUDuplicate
		}
		return apperrors.WrapDatabase(err, "创建商品失败")
	}
	p.ID = model.ID
	p.CreatedAt = model.CreatedAt
	p.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*product.Product, error) {
	var model ProductModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, product.ErrProductNotFound
		}
		return nil, apperrors.WrapDatabase(err, "查询商品失败")
	}
	return toProductEntity(&model), nil
}

// Update 保存资料和状态(编码不变)
func (r *productRepository) Update(ctx context.Context, p *product.Product) error {
	res := getDB(ctx, r.db).Model(&ProductModel{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"name":            p.Name,
		"price":           p.Price,
		"gst_rate":        p.GSTRate,
		"incentive_type":  p.IncentiveType,
		"incentive_value": p.IncentiveValue,
		"status":          string(p.Status),
		"updated_at":      p.UpdatedAt,
	})
	if res.Error != nil {
		return apperrors.WrapDatabase(res.Error, "更新商品失败")
	}
	if res.RowsAffected == 0 {
		return product.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) FindBySKU(ctx context.Context, sku string) (*product.Product, error) {
	var model ProductModel
	if err := getDB(ctx, r.db).Where("sku = ?", sku).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, product.ErrProductNotFound
		}
		return nil, apperrors.WrapDatabase(err, "查询商品失败")
	}
	return toProductEntity(&model), nil
}

// List 分页查询
// 教学要点:Keyword用LIKE模糊匹配名称和编码
func (r *productRepository) List(ctx context.Context, params product.ListParams) ([]*product.Product, int64, error) {
	query := getDB(ctx, r.db).Model(&ProductModel{})
	switch {
	case params.Status != "":
		query = query.Where("status = ?", string(params.Status))
	case params.ActiveOnly:
		query = query.Where("status = ?", string(product.StatusActive))
	}
	if params.Keyword != "" {
		like := "%" + params.Keyword + "%"
		query = query.Where("(name LIKE ? OR sku LIKE ?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.WrapDatabase(err, "查询商品总数失败")
	}

	var models []ProductModel
	offset, limit := pageOffset(params.Page, params.PageSize)
	if err := query.Order("id ASC").Limit(limit).Offset(offset).Find(&models).Error; err != nil {
		return nil, 0, apperrors.WrapDatabase(err, "查询商品列表失败")
	}

	result := make([]*product.Product, len(models))
	for i := range models {
		result[i] = toProductEntity(&models[i])
	}
	return result, total, nil
}

func toProductModel(p *product.Product) *ProductModel {
	return &ProductModel{
		ID:             p.ID,
		SKU:            p.SKU,
		Name:           p.Name,
		Price:          p.Price,
		GSTRate:        p.GSTRate,
		IncentiveType:  p.IncentiveType,
		IncentiveValue: p.IncentiveValue,
		Status:         string(p.Status),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toProductEntity(m *ProductModel) *product.Product {
	return &product.Product{
		ID:             m.ID,
		SKU:            m.SKU,
		Name:           m.Name,
		Price:          m.Price,
		GSTRate:        m.GSTRate,
		IncentiveType:  m.IncentiveType,
		IncentiveValue: m.IncentiveValue,
		Status:         product.Status(m.Status),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
