package handler

import (
	"github.com/gin-gonic/gin"

	applocation "github.com/xiebiao/smb-erp/internal/application/location"
	"github.com/xiebiao/smb-erp/internal/interface/http/dto"
	"github.com/xiebiao/smb-erp/internal/interface/http/middleware"
	"github.com/xiebiao/smb-erp/pkg/response"
)

// LocationHandler 库位HTTP处理器
type LocationHandler struct {
	manage *applocation.ManageLocationUseCase
}

// NewLocationHandler 创建库位处理器
func NewLocationHandler(manage *applocation.ManageLocationUseCase) *LocationHandler {
	return &LocationHandler{manage: manage}
}

// Create 新建库位
// @Summary      新建库位
// @Tags         库位
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateLocationRequest true "库位信息"
// @Success      200 {object} response.Response{data=applocation.LocationResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      409 {object} response.Response "名称重复"
// @Router       /api/v1/locations [post]
func (h *LocationHandler) Create(c *gin.Context) {
	var req dto.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.manage.Create(c.Request.Context(), req.Name, req.Address, middleware.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// List 库位列表
// @Summary      库位列表
// @Tags         库位
// @Produce      json
// @Security     BearerAuth
// @Param        active query bool false "只返回启用的库位"
// @Success      200 {object} response.Response{data=[]applocation.LocationResponse}
// @Router       /api/v1/locations [get]
func (h *LocationHandler) List(c *gin.Context) {
	var q dto.ListLocationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.manage.List(c.Request.Context(), q.Active)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Get 库位详情
// @Summary      库位详情
// @Tags         库位
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "库位ID"
// @Success      200 {object} response.Response{data=applocation.LocationResponse}
// @Failure      404 {object} response.Response "库位不存在"
// @Router       /api/v1/locations/{id} [get]
func (h *LocationHandler) Get(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.manage.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Update 修改库位
// @Summary      修改库位
// @Tags         库位
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "库位ID"
// @Param        request body dto.UpdateLocationRequest true "库位信息"
// @Success      200 {object} response.Response{data=applocation.LocationResponse}
// @Router       /api/v1/locations/{id} [put]
func (h *LocationHandler) Update(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.manage.Update(c.Request.Context(), id, req.Name, req.Address, middleware.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Deactivate 停用库位
// 库位被流水和订单引用，只停用不物理删除
// @Summary      停用库位
// @Tags         库位
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "库位ID"
// @Success      200 {object} response.Response{data=applocation.LocationResponse}
// @Router       /api/v1/locations/{id} [delete]
func (h *LocationHandler) Deactivate(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.manage.Deactivate(c.Request.Context(), id, middleware.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
