// Package audit 定义审计日志条目和投递接口
//
// 审计是尽力而为的旁路：投递失败只记录日志，不影响主业务。
package audit

import (
	"context"
	"time"
)

// 模块名
const (
	ModuleInventory = "inventory"
	ModuleOrder     = "order"
	ModuleLocation  = "location"
	ModuleProduct   = "product"
)

// Entry 审计条目
type Entry struct {
	Module      string
	Action      string
	EntityID    string
	PerformedBy string
	Details     map[string]any
	CreatedAt   time.Time
}

// Sink 审计投递(调用方视角)
// LogAction不返回错误，也不应阻塞调用方
type Sink interface {
	LogAction(ctx context.Context, entry Entry)
}

// Writer 审计落地(后台消费者视角)，错误由消费者记录并丢弃
type Writer interface {
	Write(ctx context.Context, entry Entry) error
}

// NopSink 丢弃所有条目(测试用)
type NopSink struct{}

// LogAction 实现Sink
func (NopSink) LogAction(context.Context, Entry) {}
