package dto

// CreateLocationRequest 新建库位
type CreateLocationRequest struct {
	Name    string `json:"name" binding:"required,max=100" example:"Main Store"`
	Address string `json:"address" binding:"max=255" example:"12 MG Road, Bengaluru"`
}

// UpdateLocationRequest 修改库位
type UpdateLocationRequest struct {
	Name    string `json:"name" binding:"required,max=100" example:"Main Store"`
	Address string `json:"address" binding:"max=255" example:"12 MG Road, Bengaluru"`
}

// ListLocationsQuery 库位列表查询参数
type ListLocationsQuery struct {
	Active bool `form:"active" example:"true"`
}
