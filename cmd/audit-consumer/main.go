// audit-consumer 消费RabbitMQ中的审计消息并写入数据库(audit.sink=mq时配合使用)
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	infraaudit "github.com/xiebiao/smb-erp/internal/infrastructure/audit"
	"github.com/xiebiao/smb-erp/internal/infrastructure/config"
	"github.com/xiebiao/smb-erp/internal/infrastructure/persistence/sqlstore"
	"github.com/xiebiao/smb-erp/pkg/logger"
	"github.com/xiebiao/smb-erp/pkg/mq"
)

const queueName = "erp.audit.log"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	zl, err := logger.New(logger.Options{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.Database.Driver == config.DriverMemory {
		zl.Fatal("audit-consumer需要SQL数据库驱动")
	}
	db, err := sqlstore.NewDB(cfg, zl)
	if err != nil {
		zl.Fatal("连接数据库失败", zap.Error(err))
	}

	consumer, err := mq.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, "topic", queueName, []string{"audit.#"}, zl)
	if err != nil {
		zl.Fatal("创建消费者失败", zap.Error(err))
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := infraaudit.NewMessageHandler(sqlstore.NewAuditRepository(db), zl)
	if err := consumer.Consume(ctx, handler); err != nil {
		zl.Error("消费中断", zap.Error(err))
	}
}
