package dto

import "github.com/shopspring/decimal"

// DateLayout 预计送达日期格式
const DateLayout = "2006-01-02"

// OrderItemRequest 订单明细
// location_id为空时使用订单门店
type OrderItemRequest struct {
	ProductID  uint `json:"product_id" binding:"required,min=1" example:"1"`
	LocationID uint `json:"location_id" example:"1"`
	Quantity   int  `json:"quantity" binding:"required,min=1,max=100000" example:"2"`
}

// CreateOrderRequest 开单
type CreateOrderRequest struct {
	CustomerName         string             `json:"customer_name" binding:"required,max=100" example:"Asha Traders"`
	LocationID           uint               `json:"location_id" binding:"required,min=1" example:"1"`
	ExpectedDeliveryDate string             `json:"expected_delivery_date" binding:"omitempty,datetime=2006-01-02" example:"2024-06-30"`
	PaymentType          string             `json:"payment_type" binding:"required,oneof=Cash Card UPI COD Online" example:"UPI"`
	DeliveryCharge       decimal.Decimal    `json:"delivery_charge" swaggertype:"string" example:"50"`
	Items                []OrderItemRequest `json:"items" binding:"required,min=1,max=100,dive"`
}

// UpdateOrderRequest 改单
// 省略items表示不改明细；明细只能在Draft状态修改
type UpdateOrderRequest struct {
	CustomerName         string             `json:"customer_name" binding:"max=100" example:"Asha Traders"`
	ExpectedDeliveryDate string             `json:"expected_delivery_date" binding:"omitempty,datetime=2006-01-02" example:"2024-06-30"`
	PaymentType          string             `json:"payment_type" binding:"omitempty,oneof=Cash Card UPI COD Online" example:"Cash"`
	DeliveryCharge       *decimal.Decimal   `json:"delivery_charge" swaggertype:"string" example:"40"`
	Items                []OrderItemRequest `json:"items" binding:"omitempty,min=1,max=100,dive"`
}

// ChangeStatusRequest 状态流转和/或支付状态
type ChangeStatusRequest struct {
	Status        string `json:"status" binding:"omitempty,oneof=Draft Confirmed Dispatched Delivered Closed Returned" example:"Confirmed"`
	PaymentStatus string `json:"payment_status" binding:"omitempty,oneof=Unpaid Paid Partial" example:"Paid"`
}

// ReturnOrderRequest 退货
type ReturnOrderRequest struct {
	Reason string `json:"reason" binding:"required,max=255" example:"damaged in transit"`
}

// ListOrdersQuery 订单列表查询参数
type ListOrdersQuery struct {
	LocationID uint   `form:"location_id" example:"1"`
	Status     string `form:"status" binding:"omitempty,oneof=Draft Confirmed Dispatched Delivered Closed Returned" example:"Draft"`
	Page       int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
}
