package handler

import (
	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/smb-erp/internal/application/order"
	"github.com/xiebiao/smb-erp/internal/interface/http/dto"
	"github.com/xiebiao/smb-erp/internal/interface/http/middleware"
	"github.com/xiebiao/smb-erp/pkg/response"
)

// OrderHandler 订单HTTP处理器
type OrderHandler struct {
	create  *apporder.CreateOrderUseCase
	update  *apporder.UpdateOrderUseCase
	status  *apporder.ChangeStatusUseCase
	returns *apporder.ReturnOrderUseCase
	remove  *apporder.DeleteOrderUseCase
	get     *apporder.GetOrderUseCase
	list    *apporder.ListOrdersUseCase
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(
	create *apporder.CreateOrderUseCase,
	update *apporder.UpdateOrderUseCase,
	status *apporder.ChangeStatusUseCase,
	returns *apporder.ReturnOrderUseCase,
	remove *apporder.DeleteOrderUseCase,
	get *apporder.GetOrderUseCase,
	list *apporder.ListOrdersUseCase,
) *OrderHandler {
	return &OrderHandler{
		create:  create,
		update:  update,
		status:  status,
		returns: returns,
		remove:  remove,
		get:     get,
		list:    list,
	}
}

func toItemRequests(items []dto.OrderItemRequest) []apporder.ItemRequest {
	if items == nil {
		return nil
	}
	out := make([]apporder.ItemRequest, len(items))
	for i, it := range items {
		out[i] = apporder.ItemRequest{
			ProductID:  it.ProductID,
			LocationID: it.LocationID,
			Quantity:   it.Quantity,
		}
	}
	return out
}

// Create 开单
// @Summary      创建订单
// @Description  创建Draft订单并预占每一行的库存；任一行库存不足则整单失败，不留任何预占
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateOrderRequest true "订单信息"
// @Success      200 {object} response.Response{data=apporder.OrderResponse} "下单成功"
// @Failure      400 {object} response.Response "参数错误"
// @Failure      404 {object} response.Response "商品或库位不存在"
// @Failure      422 {object} response.Response "库存不足"
// @Router       /api/v1/orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	expected, err := parseDate(req.ExpectedDeliveryDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.create.Execute(c.Request.Context(), apporder.CreateOrderRequest{
		CustomerName:         req.CustomerName,
		LocationID:           req.LocationID,
		ExpectedDeliveryDate: expected,
		PaymentType:          req.PaymentType,
		DeliveryCharge:       req.DeliveryCharge,
		Items:                toItemRequests(req.Items),
		Actor:                middleware.GetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// List 订单列表
// @Summary      订单列表
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        location_id query int    false "门店ID"
// @Param        status      query string false "订单状态"
// @Param        page        query int    false "页码"
// @Param        page_size   query int    false "每页数量"
// @Success      200 {object} response.Response{data=apporder.ListOrdersResponse}
// @Router       /api/v1/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var q dto.ListOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.list.Execute(c.Request.Context(), apporder.ListOrdersRequest{
		Page:       q.Page,
		PageSize:   q.PageSize,
		LocationID: q.LocationID,
		Status:     q.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Get 订单详情
// @Summary      订单详情
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        order_no path string true "订单号" example(ORD-1001)
// @Success      200 {object} response.Response{data=apporder.OrderResponse}
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /api/v1/orders/{order_no} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	result, err := h.get.Execute(c.Request.Context(), c.Param("order_no"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Update 改单
// @Summary      修改订单
// @Description  表头随时可改(终态除外)；明细只能在Draft修改，按差异释放/预占库存
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        order_no path string true "订单号"
// @Param        request body dto.UpdateOrderRequest true "修改内容"
// @Success      200 {object} response.Response{data=apporder.OrderResponse}
// @Failure      422 {object} response.Response "状态不允许或库存不足"
// @Router       /api/v1/orders/{order_no} [put]
func (h *OrderHandler) Update(c *gin.Context) {
	var req dto.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	expected, err := parseDate(req.ExpectedDeliveryDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.update.Execute(c.Request.Context(), apporder.UpdateOrderRequest{
		OrderNo:              c.Param("order_no"),
		CustomerName:         req.CustomerName,
		ExpectedDeliveryDate: expected,
		DeliveryCharge:       req.DeliveryCharge,
		PaymentType:          req.PaymentType,
		Items:                toItemRequests(req.Items),
		Actor:                middleware.GetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ChangeStatus 状态流转
// @Summary      修改订单状态
// @Description  Draft→Confirmed→Dispatched→Delivered→Closed；可同时修改支付状态。退货请使用/return
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        order_no path string true "订单号"
// @Param        request body dto.ChangeStatusRequest true "目标状态"
// @Success      200 {object} response.Response{data=apporder.OrderResponse}
// @Failure      422 {object} response.Response "非法状态流转"
// @Router       /api/v1/orders/{order_no}/status [put]
func (h *OrderHandler) ChangeStatus(c *gin.Context) {
	var req dto.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.status.Execute(c.Request.Context(), apporder.ChangeStatusRequest{
		OrderNo:       c.Param("order_no"),
		Status:        req.Status,
		PaymentStatus: req.PaymentStatus,
		Actor:         middleware.GetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Return 退货
// @Summary      订单退货
// @Description  Confirmed之后(含已发货、已送达)的订单可退货，已出库数量回补为可用
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        order_no path string true "订单号"
// @Param        request body dto.ReturnOrderRequest true "退货原因"
// @Success      200 {object} response.Response{data=apporder.OrderResponse}
// @Failure      422 {object} response.Response "状态不允许退货"
// @Router       /api/v1/orders/{order_no}/return [post]
func (h *OrderHandler) Return(c *gin.Context) {
	var req dto.ReturnOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.returns.Execute(c.Request.Context(), apporder.ReturnOrderRequest{
		OrderNo: c.Param("order_no"),
		Reason:  req.Reason,
		Actor:   middleware.GetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Delete 删单
// @Summary      删除订单
// @Description  按当前状态撤销库存影响：Draft释放预占，已出库的回补为可用
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        order_no path string true "订单号"
// @Success      200 {object} response.Response
// @Router       /api/v1/orders/{order_no} [delete]
func (h *OrderHandler) Delete(c *gin.Context) {
	err := h.remove.Execute(c.Request.Context(), apporder.DeleteOrderRequest{
		OrderNo: c.Param("order_no"),
		Actor:   middleware.GetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
