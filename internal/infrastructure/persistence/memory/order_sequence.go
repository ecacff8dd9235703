package memory

import (
	"context"
	"sync"

	"github.com/xiebiao/smb-erp/internal/domain/order"
)

// OrderSequence 进程内订单序号分配器(单实例部署)
// 首次分配时从仓储读取最近的订单号作为起点，之后在内存里递增
type OrderSequence struct {
	mu     sync.Mutex
	repo   order.Repository
	start  int64
	last   int64
	loaded bool
}

// NewOrderSequence 创建序号分配器，start<=0时使用默认起点1001
func NewOrderSequence(repo order.Repository, start int64) *OrderSequence {
	if start <= 0 {
		start = order.DefaultNumberStart
	}
	return &OrderSequence{repo: repo, start: start}
}

var _ order.Sequence = (*OrderSequence)(nil)

// Next 分配下一个序号
func (s *OrderSequence) Next(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		latest, err := s.repo.LatestNumber(ctx)
		if err != nil {
			return 0, err
		}
		s.last = order.NextAfter(latest, s.start) - 1
		s.loaded = true
	}
	s.last++
	return s.last, nil
}
