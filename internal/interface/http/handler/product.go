package handler

import (
	"github.com/gin-gonic/gin"

	appproduct "github.com/xiebiao/smb-erp/internal/application/product"
	"github.com/xiebiao/smb-erp/internal/domain/product"
	"github.com/xiebiao/smb-erp/internal/interface/http/dto"
	"github.com/xiebiao/smb-erp/internal/interface/http/middleware"
	"github.com/xiebiao/smb-erp/pkg/response"
)

// ProductHandler 商品HTTP处理器
type ProductHandler struct {
	register *appproduct.RegisterProductUseCase
	manage   *appproduct.ManageProductUseCase
	query    *appproduct.QueryProductUseCase
}

// NewProductHandler 创建商品处理器
func NewProductHandler(
	register *appproduct.RegisterProductUseCase,
	manage *appproduct.ManageProductUseCase,
	query *appproduct.QueryProductUseCase,
) *ProductHandler {
	return &ProductHandler{register: register, manage: manage, query: query}
}

// Register 新建商品
// @Summary      新建商品
// @Description  价格、GST税率、激励(Discount按百分比折扣)
// @Tags         商品
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.RegisterProductRequest true "商品信息"
// @Success      200 {object} response.Response{data=appproduct.ProductResponse}
// @Failure      409 {object} response.Response "SKU已存在"
// @Router       /api/v1/products [post]
func (h *ProductHandler) Register(c *gin.Context) {
	var req dto.RegisterProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.register.Execute(c.Request.Context(), appproduct.RegisterProductRequest{
		SKU:            req.SKU,
		Name:           req.Name,
		Price:          req.Price,
		GSTRate:        req.GSTRate,
		IncentiveType:  req.IncentiveType,
		IncentiveValue: req.IncentiveValue,
		Actor:          middleware.GetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Update 修改商品资料
// @Summary      修改商品
// @Description  只修改请求里给出的字段。已有订单按下单时的价格快照计算，不受影响
// @Tags         商品
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                       true "商品ID"
// @Param        request body dto.UpdateProductRequest  true "修改内容"
// @Success      200 {object} response.Response{data=appproduct.ProductResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      404 {object} response.Response "商品不存在"
// @Router       /api/v1/products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.manage.Update(c.Request.Context(), appproduct.UpdateProductRequest{
		ID:             id,
		Name:           req.Name,
		Price:          req.Price,
		GSTRate:        req.GSTRate,
		IncentiveType:  req.IncentiveType,
		IncentiveValue: req.IncentiveValue,
		Actor:          middleware.GetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ChangeStatus 变更商品状态
// @Summary      变更商品状态
// @Description  非Active的商品不能再被新订单引用
// @Tags         商品
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                             true "商品ID"
// @Param        request body dto.ChangeProductStatusRequest  true "目标状态"
// @Success      200 {object} response.Response{data=appproduct.ProductResponse}
// @Failure      404 {object} response.Response "商品不存在"
// @Router       /api/v1/products/{id}/status [put]
func (h *ProductHandler) ChangeStatus(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ChangeProductStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.manage.ChangeStatus(c.Request.Context(), appproduct.ChangeStatusRequest{
		ID:     id,
		Status: req.Status,
		Actor:  middleware.GetActor(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// List 商品列表
// @Summary      商品列表
// @Tags         商品
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int    false "页码"
// @Param        page_size query int    false "每页数量"
// @Param        keyword   query string false "名称/SKU关键字"
// @Param        active    query bool   false "只返回在售商品"
// @Param        status    query string false "按状态过滤(Active/Inactive/Discontinued)，优先于active"
// @Success      200 {object} response.Response{data=appproduct.ListProductsResponse}
// @Router       /api/v1/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var q dto.ListProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.query.List(c.Request.Context(), product.ListParams{
		Page:       q.Page,
		PageSize:   q.PageSize,
		Keyword:    q.Keyword,
		ActiveOnly: q.ActiveOnly,
		Status:     product.Status(q.Status),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, result.List, result.Total, result.Page, result.PageSize)
}

// Get 商品详情
// @Summary      商品详情
// @Tags         商品
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "商品ID"
// @Success      200 {object} response.Response{data=appproduct.ProductResponse}
// @Failure      404 {object} response.Response "商品不存在"
// @Router       /api/v1/products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.query.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
