// Package saga 实现基于补偿的Saga编排
//
// 订单上的每个库存调用(预占、释放、确认、回补)都是一个独立的单键原子操作，
// 多行订单无法在一个存储事务里完成。Saga把每次台账调用登记为一个步骤并附带逆操作，
// 任意一步失败时按逆序执行已完成步骤的补偿：
//
//	正向：Reserve(A) → Reserve(B) → Reserve(C)✗
//	补偿：Release(B) → Release(A)
//
// 补偿本身也可能失败(例如库存已被管理员重置)。补偿失败不会中断后续补偿，
// 所有失败会汇总到CompensationError中返回，调用方据此判断是否需要人工介入。
package saga

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/smb-erp/pkg/metrics"
)

// Step Saga步骤
type Step struct {
	Name       string                          // 步骤名称（用于日志和调试）
	Action     func(ctx context.Context) error // 正向操作
	Compensate func(ctx context.Context) error // 补偿操作，可以为nil
}

// Saga 编排器(非并发安全，一次执行使用一个实例)
type Saga struct {
	name     string
	steps    []Step
	executed []Step
	timeout  time.Duration
	logger   *zap.Logger
}

// Option Saga选项
type Option func(*Saga)

// WithLogger 设置日志器(默认zap.NewNop)
func WithLogger(l *zap.Logger) Option {
	return func(s *Saga) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithName 设置Saga名称(出现在日志中)
func WithName(name string) Option {
	return func(s *Saga) {
		s.name = name
	}
}

// NewSaga 创建Saga，timeout<=0表示不限时
func NewSaga(timeout time.Duration, opts ...Option) *Saga {
	s := &Saga{
		name:    "saga",
		steps:   make([]Step, 0),
		timeout: timeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddStep 追加步骤
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, Step{
		Name:       name,
		Action:     action,
		Compensate: compensate,
	})
}

// Len 已登记的步骤数
func (s *Saga) Len() int {
	return len(s.steps)
}

// Execute 顺序执行所有步骤，失败时逆序补偿
//
// 返回值：
//   - nil: 全部成功
//   - 包装了失败步骤错误的error(可以用errors.Is/As识别原始业务错误)
//   - *CompensationError: 步骤失败且至少一个补偿也失败
func (s *Saga) Execute(ctx context.Context) error {
	start := time.Now()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for i, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return s.fail(start, fmt.Errorf("saga超时: %w", err))
		}

		if step.Action != nil {
			if err := step.Action(ctx); err != nil {
				return s.fail(start, fmt.Errorf("步骤[%d:%s]执行失败: %w", i, step.Name, err))
			}
		}
		s.executed = append(s.executed, step)
	}

	metrics.ObserveSaga("success", time.Since(start))
	return nil
}

func (s *Saga) fail(start time.Time, cause error) error {
	s.logger.Warn("saga执行失败，开始补偿",
		zap.String("saga", s.name),
		zap.Int("executed_steps", len(s.executed)),
		zap.Error(cause),
	)

	// 使用新Context，避免调用方的取消/超时导致补偿也无法执行
	failures := s.compensate(context.Background())
	metrics.ObserveSaga("failure", time.Since(start))

	if len(failures) > 0 {
		return &CompensationError{Cause: cause, Failures: failures}
	}
	return cause
}

func (s *Saga) compensate(ctx context.Context) []error {
	var failures []error

	for i := len(s.executed) - 1; i >= 0; i-- {
		step := s.executed[i]
		if step.Compensate == nil {
			continue
		}

		if err := step.Compensate(ctx); err != nil {
			metrics.IncSagaCompensation("failure")
			s.logger.Error("补偿失败",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			failures = append(failures, fmt.Errorf("补偿[%s]失败: %w", step.Name, err))
			continue
		}
		metrics.IncSagaCompensation("success")
	}

	s.executed = nil
	return failures
}

// CompensationError 步骤失败且补偿未能全部完成
// 此时数据可能处于不一致状态，需要告警和人工核对
type CompensationError struct {
	Cause    error
	Failures []error
}

func (e *CompensationError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("%v; 补偿未完成: %s", e.Cause, strings.Join(msgs, "; "))
}

// Unwrap 支持errors.Is/As同时匹配原始错误和补偿错误
func (e *CompensationError) Unwrap() []error {
	return append([]error{e.Cause}, e.Failures...)
}

// IsCompensationError 判断是否为补偿未完成错误
func IsCompensationError(err error) bool {
	var ce *CompensationError
	return errors.As(err, &ce)
}
