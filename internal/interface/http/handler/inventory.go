package handler

import (
	"github.com/gin-gonic/gin"

	appinventory "github.com/xiebiao/smb-erp/internal/application/inventory"
	"github.com/xiebiao/smb-erp/internal/interface/http/dto"
	"github.com/xiebiao/smb-erp/internal/interface/http/middleware"
	"github.com/xiebiao/smb-erp/pkg/response"
)

// InventoryHandler 库存HTTP处理器
// 只做参数绑定和DTO转换，库存规则全部在台账里
type InventoryHandler struct {
	get          *appinventory.GetStockUseCase
	list         *appinventory.ListStockUseCase
	adjust       *appinventory.AdjustStockUseCase
	transfer     *appinventory.TransferStockUseCase
	transactions *appinventory.ListTransactionsUseCase
	remove       *appinventory.DeleteStockUseCase
	reconcile    *appinventory.ReconcileStockUseCase
}

// NewInventoryHandler 创建库存处理器
func NewInventoryHandler(
	get *appinventory.GetStockUseCase,
	list *appinventory.ListStockUseCase,
	adjust *appinventory.AdjustStockUseCase,
	transfer *appinventory.TransferStockUseCase,
	transactions *appinventory.ListTransactionsUseCase,
	remove *appinventory.DeleteStockUseCase,
	reconcile *appinventory.ReconcileStockUseCase,
) *InventoryHandler {
	return &InventoryHandler{
		get:          get,
		list:         list,
		adjust:       adjust,
		transfer:     transfer,
		transactions: transactions,
		remove:       remove,
		reconcile:    reconcile,
	}
}

// List 库存列表
// @Summary      库存列表
// @Description  返回可用/预占/已出库、现有量(可用+预占+已出库)和库存状态
// @Tags         库存
// @Produce      json
// @Security     BearerAuth
// @Param        product_id  query int false "商品ID"
// @Param        location_id query int false "库位ID"
// @Param        page        query int false "页码"
// @Param        page_size   query int false "每页数量"
// @Success      200 {object} response.Response{data=response.PageData{list=[]appinventory.StockResponse}}
// @Router       /api/v1/inventory [get]
func (h *InventoryHandler) List(c *gin.Context) {
	var q dto.ListStockQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.list.Execute(c.Request.Context(), appinventory.ListStockRequest{
		ProductID:  q.ProductID,
		LocationID: q.LocationID,
		Page:       q.Page,
		PageSize:   q.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.List, result.Total, result.Page, result.PageSize)
}

// Get 查询单条库存
// @Summary      查询库存
// @Tags         库存
// @Produce      json
// @Security     BearerAuth
// @Param        product_id  path int true "商品ID"
// @Param        location_id path int true "库位ID"
// @Success      200 {object} response.Response{data=appinventory.StockResponse}
// @Failure      404 {object} response.Response "库存记录不存在"
// @Router       /api/v1/inventory/{product_id}/{location_id} [get]
func (h *InventoryHandler) Get(c *gin.Context) {
	var p dto.StockPath
	if err := c.ShouldBindUri(&p); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.get.Execute(c.Request.Context(), p.ProductID, p.LocationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Reconcile 库存记录与流水对账
// @Summary      库存对账
// @Description  用最新流水的快照核对记录，并检查流水前后是否连贯。只读，不做修复
// @Tags         库存
// @Produce      json
// @Security     BearerAuth
// @Param        product_id  path int true "商品ID"
// @Param        location_id path int true "库位ID"
// @Success      200 {object} response.Response{data=appinventory.ReconcileResponse}
// @Failure      404 {object} response.Response "库存记录不存在"
// @Router       /api/v1/inventory/{product_id}/{location_id}/reconcile [get]
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	var p dto.StockPath
	if err := c.ShouldBindUri(&p); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.reconcile.Execute(c.Request.Context(), p.ProductID, p.LocationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Delete 删除库存记录(管理操作)
// @Summary      删除库存记录
// @Description  直接删除记录，不校验预占和已出库，流水保留
// @Tags         库存
// @Produce      json
// @Security     BearerAuth
// @Param        product_id  path int true "商品ID"
// @Param        location_id path int true "库位ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response "库存记录不存在"
// @Router       /api/v1/inventory/{product_id}/{location_id} [delete]
func (h *InventoryHandler) Delete(c *gin.Context) {
	var p dto.StockPath
	if err := c.ShouldBindUri(&p); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.remove.Execute(c.Request.Context(), p.ProductID, p.LocationID, middleware.GetActor(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Adjust 手工调整
// @Summary      手工调整库存
// @Description  INWARD入库 / OUTWARD出库 / ISSUE领用 / ADJUSTMENT盘点重置
// @Tags         库存
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.AdjustStockRequest true "调整信息"
// @Success      200 {object} response.Response{data=appinventory.StockResponse}
// @Failure      422 {object} response.Response "可用库存不足"
// @Router       /api/v1/inventory/adjust [post]
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req dto.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.adjust.Execute(c.Request.Context(), appinventory.AdjustStockRequest{
		ProductID:  req.ProductID,
		LocationID: req.LocationID,
		Type:       req.Type,
		Quantity:   req.Quantity,
		Reference:  req.Reference,
		Reason:     req.Reason,
		Actor:      middleware.GetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Transfer 库位调拨
// @Summary      库位调拨
// @Description  源库位OUTWARD + 目标库位INWARD，目标失败时回补源库位
// @Tags         库存
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.TransferStockRequest true "调拨信息"
// @Success      200 {object} response.Response{data=appinventory.TransferStockResponse}
// @Failure      422 {object} response.Response "可用库存不足"
// @Router       /api/v1/inventory/transfer [post]
func (h *InventoryHandler) Transfer(c *gin.Context) {
	var req dto.TransferStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.transfer.Execute(c.Request.Context(), appinventory.TransferStockRequest{
		ProductID:      req.ProductID,
		FromLocationID: req.FromLocationID,
		ToLocationID:   req.ToLocationID,
		Quantity:       req.Quantity,
		Reason:         req.Reason,
		Actor:          middleware.GetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Transactions 库存流水
// @Summary      库存流水
// @Description  最新的在前
// @Tags         库存
// @Produce      json
// @Security     BearerAuth
// @Param        product_id  query int    false "商品ID"
// @Param        location_id query int    false "库位ID"
// @Param        type        query string false "流水类型"
// @Param        reference   query string false "业务单号"
// @Param        from        query string false "起始时间(RFC3339)"
// @Param        to          query string false "结束时间(RFC3339)"
// @Param        page        query int    false "页码"
// @Param        page_size   query int    false "每页数量"
// @Success      200 {object} response.Response{data=response.PageData{list=[]appinventory.TransactionResponse}}
// @Router       /api/v1/inventory/transactions [get]
func (h *InventoryHandler) Transactions(c *gin.Context) {
	var q dto.ListTransactionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}
	from, err := parseTime(q.From)
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := parseTime(q.To)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.transactions.Execute(c.Request.Context(), appinventory.ListTransactionsRequest{
		ProductID:  q.ProductID,
		LocationID: q.LocationID,
		Type:       q.Type,
		Reference:  q.Reference,
		From:       from,
		To:         to,
		Page:       q.Page,
		PageSize:   q.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.List, result.Total, result.Page, result.PageSize)
}
