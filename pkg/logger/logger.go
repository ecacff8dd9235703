// Package logger 基于zap的结构化日志
//
// 设计要点：
//  1. 日志级别、格式、输出目标全部来自配置(log段)
//  2. json格式用于生产环境(便于ELK采集)，console格式用于本地开发
//  3. WithContext会把TraceID/SpanID附加到日志字段上，便于从日志跳转到Jaeger
package logger

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xiebiao/smb-erp/pkg/tracing"
)

// Options 日志配置
type Options struct {
	Level        string // debug | info | warn | error
	Format       string // console | json
	Output       string // stdout | stderr | /path/to/file
	EnableCaller bool
}

// New 根据配置创建zap.Logger
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil {
			return nil, fmt.Errorf("无效的日志级别 %q: %w", opts.Level, err)
		}
	}

	cfg := zap.NewProductionConfig()
	if opts.Format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableCaller = !opts.EnableCaller

	output := opts.Output
	if output == "" {
		output = "stdout"
	}
	cfg.OutputPaths = []string{output}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("创建日志器失败: %w", err)
	}
	return l, nil
}

// WithContext 返回附带trace_id/span_id字段的Logger
// ctx中没有有效Span时原样返回
func WithContext(ctx context.Context, l *zap.Logger) *zap.Logger {
	traceID := tracing.ExtractTraceID(ctx)
	if traceID == "" {
		return l
	}
	return l.With(
		zap.String("trace_id", traceID),
		zap.String("span_id", tracing.ExtractSpanID(ctx)),
	)
}
