package dto

// StockPath 库存记录路径参数
type StockPath struct {
	ProductID  uint `uri:"product_id" binding:"required,min=1"`
	LocationID uint `uri:"location_id" binding:"required,min=1"`
}

// ListStockQuery 库存列表查询参数
type ListStockQuery struct {
	ProductID  uint `form:"product_id" example:"1"`
	LocationID uint `form:"location_id" example:"1"`
	Page       int  `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize   int  `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
}

// AdjustStockRequest 手工调整
// ADJUSTMENT为盘点重置，quantity可以为0(清空)
type AdjustStockRequest struct {
	ProductID  uint   `json:"product_id" binding:"required,min=1" example:"1"`
	LocationID uint   `json:"location_id" binding:"required,min=1" example:"1"`
	Type       string `json:"type" binding:"required,oneof=INWARD OUTWARD ISSUE ADJUSTMENT inward outward issue adjustment" example:"INWARD"`
	Quantity   int    `json:"quantity" binding:"min=0,max=1000000" example:"20"`
	Reference  string `json:"reference" binding:"max=100" example:"GRN-2041"`
	Reason     string `json:"reason" binding:"max=255" example:"supplier delivery"`
}

// TransferStockRequest 两库位调拨
type TransferStockRequest struct {
	ProductID      uint   `json:"product_id" binding:"required,min=1" example:"1"`
	FromLocationID uint   `json:"from_location_id" binding:"required,min=1" example:"1"`
	ToLocationID   uint   `json:"to_location_id" binding:"required,min=1,nefield=FromLocationID" example:"2"`
	Quantity       int    `json:"quantity" binding:"required,min=1,max=1000000" example:"5"`
	Reason         string `json:"reason" binding:"max=255" example:"restock branch"`
}

// ListTransactionsQuery 流水查询参数，from/to为RFC3339时间
type ListTransactionsQuery struct {
	ProductID  uint   `form:"product_id" example:"1"`
	LocationID uint   `form:"location_id" example:"1"`
	Type       string `form:"type" example:"RESERVE"`
	Reference  string `form:"reference" example:"ORD-1001"`
	From       string `form:"from" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00" example:"2024-01-01T00:00:00Z"`
	To         string `form:"to" binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00" example:"2024-12-31T23:59:59Z"`
	Page       int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
}
