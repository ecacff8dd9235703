package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBroker = errors.New("broker unavailable")

func newTestBreaker(timeout time.Duration) *CircuitBreaker {
	return NewCircuitBreaker("test", Config{
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}

// TestCircuitBreaker_ClosedState 成功请求保持关闭
func TestCircuitBreaker_ClosedState(t *testing.T) {
	cb := newTestBreaker(time.Second)

	for i := 0; i < 10; i++ {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Fatalf("期望成功，实际失败: %v", err)
		}
	}

	if cb.State() != StateClosed {
		t.Errorf("期望状态为CLOSED，实际%s", cb.State())
	}
	if got := cb.Counts().TotalSuccesses; got != 10 {
		t.Errorf("期望成功10次，实际%d次", got)
	}
}

// TestCircuitBreaker_OpenState 连续失败后熔断，且不再调用req
func TestCircuitBreaker_OpenState(t *testing.T) {
	cb := newTestBreaker(time.Minute)

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errBroker })
	}
	if cb.State() != StateOpen {
		t.Fatalf("期望状态为OPEN，实际%s", cb.State())
	}

	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrOpenState) {
		t.Errorf("期望返回ErrOpenState，实际%v", err)
	}
	if called {
		t.Error("熔断器打开时不应该调用实际函数")
	}
}

// TestCircuitBreaker_HalfOpenRecovery 超时后半开，探测成功则关闭
func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := newTestBreaker(50 * time.Millisecond)

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errBroker })
	}
	time.Sleep(80 * time.Millisecond)

	if cb.State() != StateHalfOpen {
		t.Fatalf("期望状态为HALF_OPEN，实际%s", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("半开探测应放行: %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("探测成功后期望CLOSED，实际%s", cb.State())
	}
}

// TestCircuitBreaker_HalfOpenToOpen 半开探测失败重新熔断
func TestCircuitBreaker_HalfOpenToOpen(t *testing.T) {
	cb := newTestBreaker(50 * time.Millisecond)

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errBroker })
	}
	time.Sleep(80 * time.Millisecond)

	_ = cb.Execute(func() error { return errBroker })
	if cb.State() != StateOpen {
		t.Errorf("探测失败后期望OPEN，实际%s", cb.State())
	}
}

// TestCircuitBreaker_StateChangeCallback 回调收到完整的状态序列
func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	cb := newTestBreaker(50 * time.Millisecond)

	var transitions []string
	cb.SetStateChangeCallback(func(name string, from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return errBroker })
	}
	time.Sleep(80 * time.Millisecond)
	_ = cb.Execute(func() error { return nil })

	want := []string{"CLOSED->OPEN", "OPEN->HALF_OPEN", "HALF_OPEN->CLOSED"}
	if len(transitions) != len(want) {
		t.Fatalf("期望%d次状态变化，实际%v", len(want), transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("第%d次状态变化: 期望%s，实际%s", i, want[i], transitions[i])
		}
	}
}

// TestCircuitBreaker_DefaultReadyToTrip 未配置ReadyToTrip时连续失败5次熔断
func TestCircuitBreaker_DefaultReadyToTrip(t *testing.T) {
	cb := NewCircuitBreaker("default", Config{Timeout: time.Minute})

	for i := 0; i < 4; i++ {
		_ = cb.Execute(func() error { return errBroker })
	}
	if cb.State() != StateClosed {
		t.Fatalf("4次失败不应熔断，实际%s", cb.State())
	}
	_ = cb.Execute(func() error { return errBroker })
	if cb.State() != StateOpen {
		t.Errorf("5次失败应熔断，实际%s", cb.State())
	}
}

func TestCounts_FailureRate(t *testing.T) {
	c := Counts{Requests: 4, TotalFailures: 1}
	if got := c.FailureRate(); got != 0.25 {
		t.Errorf("期望失败率0.25，实际%f", got)
	}
	c.Reset()
	if got := c.FailureRate(); got != 0 {
		t.Errorf("清零后期望0，实际%f", got)
	}
}
