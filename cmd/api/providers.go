package main

import (
	"context"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appinventory "github.com/xiebiao/smb-erp/internal/application/inventory"
	apporder "github.com/xiebiao/smb-erp/internal/application/order"
	"github.com/xiebiao/smb-erp/internal/domain/audit"
	"github.com/xiebiao/smb-erp/internal/domain/inventory"
	"github.com/xiebiao/smb-erp/internal/domain/location"
	"github.com/xiebiao/smb-erp/internal/domain/order"
	"github.com/xiebiao/smb-erp/internal/domain/product"
	infraaudit "github.com/xiebiao/smb-erp/internal/infrastructure/audit"
	"github.com/xiebiao/smb-erp/internal/infrastructure/config"
	"github.com/xiebiao/smb-erp/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/smb-erp/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/smb-erp/internal/infrastructure/persistence/sqlstore"
	"github.com/xiebiao/smb-erp/internal/interface/http/middleware"
	"github.com/xiebiao/smb-erp/internal/interface/http/router"
	"github.com/xiebiao/smb-erp/pkg/jwt"
	"github.com/xiebiao/smb-erp/pkg/keylock"
	"github.com/xiebiao/smb-erp/pkg/mq"
)

// App 组装完成的应用
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Engine *gin.Engine
	Audit  *infraaudit.AsyncSink
}

// Storage 按database.driver选出的一组仓储
// 教学要点：驱动是运行时配置，Wire只能在编译期连线，
// 所以由一个Provider在运行时做选择，再用wire.FieldsOf把字段拆给下游
type Storage struct {
	DB           *gorm.DB // memory驱动时为nil
	Stocks       inventory.StockRepository
	Transactions inventory.TransactionRepository
	Locations    location.Repository
	Products     product.Repository
	Orders       order.Repository
}

// provideStorage 创建仓储；SQL驱动返回的cleanup负责关闭连接池
func provideStorage(cfg *config.Config, log *zap.Logger) (*Storage, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("使用内存存储，进程重启后数据丢失")
		txs := memory.NewTransactionStore()
		return &Storage{
			Stocks:       memory.NewStockStore(txs),
			Transactions: txs,
			Locations:    memory.NewLocationStore(),
			Products:     memory.NewProductStore(),
			Orders:       memory.NewOrderStore(),
		}, func() {}, nil
	}

	db, err := sqlstore.NewDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return &Storage{
		DB:           db,
		Stocks:       sqlstore.NewStockRepository(db),
		Transactions: sqlstore.NewTransactionRepository(db),
		Locations:    sqlstore.NewLocationRepository(db),
		Products:     sqlstore.NewProductRepository(db),
		Orders:       sqlstore.NewOrderRepository(db),
	}, cleanup, nil
}

// provideRedis redis.enabled=false时返回nil客户端
func provideRedis(cfg *config.Config, log *zap.Logger) (*goredis.Client, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// provideLocker 多实例部署用Redis锁，否则用进程内按键锁
func provideLocker(cfg *config.Config, client *goredis.Client, log *zap.Logger) inventory.Locker {
	if client != nil {
		return redis.NewKeyLocker(client, cfg.Redis.LockTTL, log)
	}
	return keylock.New()
}

// provideSequence 订单序号分配器，和锁一样按是否启用Redis选择
func provideSequence(cfg *config.Config, client *goredis.Client, orders order.Repository) order.Sequence {
	if client != nil {
		return redis.NewOrderSequence(client, orders, cfg.Order.NumberStart)
	}
	return memory.NewOrderSequence(orders, cfg.Order.NumberStart)
}

func provideLedger(cfg *config.Config, stocks inventory.StockRepository, locker inventory.Locker, log *zap.Logger) inventory.Ledger {
	return inventory.NewLedger(stocks, locker,
		inventory.WithClampCounters(cfg.Inventory.ClampCounters),
		inventory.WithLockTimeout(cfg.Inventory.LockTimeout),
		inventory.WithLedgerLogger(log),
	)
}

func provideCatalog(svc product.Service) product.Catalog {
	return svc
}

func provideInventorySettings(cfg *config.Config) appinventory.Settings {
	return appinventory.Settings{
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
		SagaTimeout:       cfg.Order.SagaTimeout,
	}
}

func provideOrderSettings(cfg *config.Config) apporder.Settings {
	s := apporder.DefaultSettings()
	if cfg.Order.SagaTimeout > 0 {
		s.SagaTimeout = cfg.Order.SagaTimeout
	}
	if cfg.Inventory.LockTimeout > 0 {
		s.LockTimeout = cfg.Inventory.LockTimeout
	}
	s.ClampCounters = cfg.Inventory.ClampCounters
	return s
}

// provideAuditSink 异步审计队列 + 按audit.sink选择的落地方式
// cleanup会在超时内把队列里剩余的记录写完
func provideAuditSink(cfg *config.Config, storage *Storage, log *zap.Logger) (*infraaudit.AsyncSink, func(), error) {
	var (
		writer  audit.Writer
		closers []func()
	)
	switch cfg.Audit.Sink {
	case config.AuditSinkDB:
		writer = sqlstore.NewAuditRepository(storage.DB)
	case config.AuditSinkMQ:
		pub, err := mq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, "topic", log)
		if err != nil {
			return nil, nil, err
		}
		writer = infraaudit.NewMQWriter(pub)
		closers = append(closers, func() { _ = pub.Close() })
	default:
		writer = infraaudit.NewLogWriter(log)
	}

	sink := infraaudit.NewAsyncSink(writer, cfg.Audit.QueueSize, log)
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Audit.DrainTimeout)
		defer cancel()
		if err := sink.Close(ctx); err != nil {
			log.Warn("审计队列未在超时内写完", zap.Error(err))
		}
		for _, c := range closers {
			c()
		}
	}
	return sink, cleanup, nil
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Expire)
}

func provideEngine(cfg *config.Config, log *zap.Logger, auth *middleware.AuthMiddleware, h router.Handlers) *gin.Engine {
	return router.New(router.Options{
		Mode:          cfg.Server.Mode,
		EnableSwagger: cfg.Server.Mode != gin.ReleaseMode,
	}, log, auth, h)
}
