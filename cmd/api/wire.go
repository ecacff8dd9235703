//go:build wireinject
// +build wireinject

// Wire依赖注入配置文件
//
// 教学说明：
// 1. Wire在编译期生成代码(wire_gen.go)，零运行时反射
// 2. 修改Provider后运行 `wire gen ./cmd/api` 重新生成
// 3. 存储驱动、Redis、审计落地方式都是运行时配置，
//    由providers.go里的自定义Provider做选择，Wire只负责连线

package main

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	appinventory "github.com/xiebiao/smb-erp/internal/application/inventory"
	applocation "github.com/xiebiao/smb-erp/internal/application/location"
	apporder "github.com/xiebiao/smb-erp/internal/application/order"
	appproduct "github.com/xiebiao/smb-erp/internal/application/product"
	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/internal/domain/inventory"
	"github.com/xiebiao/smb-erp/internal/domain/location"
	"github.com/xiebiao/smb-erp/internal/domain/product"
	infraaudit "github.com/xiebiao/smb-erp/internal/infrastructure/audit"
	"github.com/xiebiao/smb-erp/internal/infrastructure/config"
	"github.com/xiebiao/smb-erp/internal/interface/http/handler"
	"github.com/xiebiao/smb-erp/internal/interface/http/middleware"
	"github.com/xiebiao/smb-erp/internal/interface/http/router"
)

// infrastructureSet 基础设施层：存储、Redis、锁、序号、审计
var infrastructureSet = wire.NewSet(
	provideStorage,
	wire.FieldsOf(new(*Storage), "Stocks", "Transactions", "Locations", "Products", "Orders"),
	provideRedis,
	provideLocker,
	provideSequence,
	provideAuditSink,
	wire.Bind(new(audit.Sink), new(*infraaudit.AsyncSink)),
)

// domainSet 领域层：台账、流水、库位和商品服务
var domainSet = wire.NewSet(
	provideLedger,
	inventory.NewTransactionLog,
	location.NewService,
	product.NewService,
	provideCatalog,
)

// applicationSet 应用层用例
var applicationSet = wire.NewSet(
	provideInventorySettings,
	provideOrderSettings,
	appinventory.NewGetStockUseCase,
	appinventory.NewListStockUseCase,
	appinventory.NewAdjustStockUseCase,
	appinventory.NewTransferStockUseCase,
	appinventory.NewListTransactionsUseCase,
	appinventory.NewDeleteStockUseCase,
	appinventory.NewReconcileStockUseCase,
	applocation.NewManageLocationUseCase,
	appproduct.NewRegisterProductUseCase,
	appproduct.NewManageProductUseCase,
	appproduct.NewQueryProductUseCase,
	apporder.NewStockCoordinator,
	apporder.NewCreateOrderUseCase,
	apporder.NewUpdateOrderUseCase,
	apporder.NewChangeStatusUseCase,
	apporder.NewReturnOrderUseCase,
	apporder.NewDeleteOrderUseCase,
	apporder.NewGetOrderUseCase,
	apporder.NewListOrdersUseCase,
)

// middlewareSet JWT和认证中间件
var middlewareSet = wire.NewSet(
	provideJWTManager,
	middleware.NewAuthMiddleware,
)

// handlerSet HTTP处理器和路由
var handlerSet = wire.NewSet(
	handler.NewLocationHandler,
	handler.NewProductHandler,
	handler.NewInventoryHandler,
	handler.NewOrderHandler,
	wire.Struct(new(router.Handlers), "*"),
	provideEngine,
)

// InitializeApp 初始化整个应用
// 返回的cleanup按构造的逆序释放资源：先排空审计队列，再关Redis和数据库
func InitializeApp(cfg *config.Config, log *zap.Logger) (*App, func(), error) {
	wire.Build(
		infrastructureSet,
		domainSet,
		applicationSet,
		middlewareSet,
		handlerSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
