package order

import (
	"context"
	"strconv"
	"strings"

	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// 订单号格式：ORD-<n>，n从1001开始递增，不补零
// 示例：ORD-1001, ORD-1002
const (
	OrderNoPrefix = "ORD-"

	// DefaultNumberStart 没有任何订单时分配的第一个序号
	DefaultNumberStart int64 = 1001
)

// FormatOrderNo 序号转订单号
func FormatOrderNo(n int64) string {
	return OrderNoPrefix + strconv.FormatInt(n, 10)
}

// ParseOrderNo 订单号转序号
func ParseOrderNo(orderNo string) (int64, error) {
	s, ok := strings.CutPrefix(orderNo, OrderNoPrefix)
	if !ok {
		return 0, apperrors.WithDetail(ErrInvalidOrderNo, "%q", orderNo)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, apperrors.WithDetail(ErrInvalidOrderNo, "%q", orderNo)
	}
	return n, nil
}

// Sequence 订单序号分配器
// 教学要点:
// 1. 分配必须串行化，否则并发下单会拿到同一个号
// 2. 单实例用进程内计数器，多实例用Redis INCR
// 3. 数据库order_no唯一索引兜底，冲突时由用例重试
type Sequence interface {
	Next(ctx context.Context) (int64, error)
}

// NextAfter 根据最近一个订单号推导下一个序号
func NextAfter(latest int64, start int64) int64 {
	if latest < start {
		return start
	}
	return latest + 1
}
