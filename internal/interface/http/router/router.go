// Package router 组装gin引擎：全局中间件、公开路由和/api/v1业务路由
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/internal/interface/http/handler"
	"github.com/xiebiao/smb-erp/internal/interface/http/middleware"
	"github.com/xiebiao/smb-erp/pkg/response"
)

// Handlers 所有HTTP处理器
type Handlers struct {
	Location  *handler.LocationHandler
	Product   *handler.ProductHandler
	Inventory *handler.InventoryHandler
	Order     *handler.OrderHandler
}

// Options 路由选项
type Options struct {
	Mode          string // debug | release | test
	EnableSwagger bool
}

// New 创建并配置Gin引擎
//
// 中间件顺序：Recovery → 请求日志(生成request_id) → 指标 → 认证(仅/api/v1)
func New(opts Options, log *zap.Logger, auth *middleware.AuthMiddleware, h Handlers) *gin.Engine {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	// 请求体里出现未定义字段直接报参数错误
	binding.EnableDecoderDisallowUnknownFields = true

	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.RequestLogger(log), middleware.Metrics())

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong", "status": "healthy"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.EnableSwagger {
		// 访问 http://localhost:8080/swagger/index.html 查看API文档
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	v1.Use(auth.RequireAuth())
	{
		locations := v1.Group("/locations")
		{
			locations.POST("", h.Location.Create)
			locations.GET("", h.Location.List)
			locations.GET("/:id", h.Location.Get)
			locations.PUT("/:id", h.Location.Update)
			locations.DELETE("/:id", h.Location.Deactivate)
		}

		products := v1.Group("/products")
		{
			products.POST("", h.Product.Register)
			products.GET("", h.Product.List)
			products.GET("/:id", h.Product.Get)
			products.PUT("/:id", h.Product.Update)
			products.PUT("/:id/status", h.Product.ChangeStatus)
		}

		inventory := v1.Group("/inventory")
		{
			inventory.GET("", h.Inventory.List)
			inventory.GET("/transactions", h.Inventory.Transactions)
			inventory.POST("/adjust", h.Inventory.Adjust)
			inventory.POST("/transfer", h.Inventory.Transfer)
			inventory.GET("/:product_id/:location_id", h.Inventory.Get)
			inventory.GET("/:product_id/:location_id/reconcile", h.Inventory.Reconcile)
			inventory.DELETE("/:product_id/:location_id", h.Inventory.Delete)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("", h.Order.Create)
			orders.GET("", h.Order.List)
			orders.GET("/:order_no", h.Order.Get)
			orders.PUT("/:order_no", h.Order.Update)
			orders.DELETE("/:order_no", h.Order.Delete)
			orders.PUT("/:order_no/status", h.Order.ChangeStatus)
			orders.POST("/:order_no/return", h.Order.Return)
		}
	}

	return r
}
