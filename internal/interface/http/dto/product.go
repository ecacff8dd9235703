package dto

import "github.com/shopspring/decimal"

// RegisterProductRequest 新建商品
// 金额字段用decimal，JSON里既可以是数字也可以是字符串("99.50")，
// 取值范围由领域层校验
type RegisterProductRequest struct {
	SKU            string          `json:"sku" binding:"required,max=64" example:"SKU-1001"`
	Name           string          `json:"name" binding:"required,max=200" example:"Steel Bottle 1L"`
	Price          decimal.Decimal `json:"price" swaggertype:"string" example:"499.00"`
	GSTRate        decimal.Decimal `json:"gst_rate" swaggertype:"string" example:"18"`
	IncentiveType  string          `json:"incentive_type" binding:"omitempty,oneof=Discount Commission None" example:"Discount"`
	IncentiveValue decimal.Decimal `json:"incentive_value" swaggertype:"string" example:"10"`
}

// UpdateProductRequest 修改商品资料，未给出的字段保持原值
// SKU不可修改
type UpdateProductRequest struct {
	Name           *string          `json:"name" binding:"omitempty,min=1,max=200" example:"Steel Bottle 1.5L"`
	Price          *decimal.Decimal `json:"price" swaggertype:"string" example:"549.00"`
	GSTRate        *decimal.Decimal `json:"gst_rate" swaggertype:"string" example:"12"`
	IncentiveType  *string          `json:"incentive_type" binding:"omitempty,oneof=Discount Commission None" example:"Commission"`
	IncentiveValue *decimal.Decimal `json:"incentive_value" swaggertype:"string" example:"5"`
}

// ChangeProductStatusRequest 商品状态变更
type ChangeProductStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=Active Inactive Discontinued" example:"Inactive"`
}

// ListProductsQuery 商品列表查询参数
type ListProductsQuery struct {
	Page       int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
	Keyword    string `form:"keyword" binding:"omitempty,max=100" example:"bottle"`
	ActiveOnly bool   `form:"active" example:"true"`
	Status     string `form:"status" binding:"omitempty,oneof=Active Inactive Discontinued" example:"Active"`
}
