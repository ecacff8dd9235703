package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/smb-erp/internal/domain/order"
	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

// OrderSequence 基于Redis INCR的订单序号分配器(多实例部署)
//
// 教学要点：
// 1. INCR是原子操作，多实例并发也不会拿到重复的号
// 2. key不存在时用SETNX写入"数据库最新序号"作为种子(只有第一个实例生效)
// 3. Redis数据丢失后重新播种，数据库的唯一索引兜底
type OrderSequence struct {
	client *redis.Client
	repo   order.Repository
	key    string
	start  int64
}

// NewOrderSequence 创建序号分配器，start<=0时使用默认起点1001
func NewOrderSequence(client *redis.Client, repo order.Repository, start int64) *OrderSequence {
	if start <= 0 {
		start = order.DefaultNumberStart
	}
	return &OrderSequence{client: client, repo: repo, key: "erp:order:seq", start: start}
}

var _ order.Sequence = (*OrderSequence)(nil)

// Next 分配下一个序号
func (s *OrderSequence) Next(ctx context.Context) (int64, error) {
	exists, err := s.client.Exists(ctx, s.key).Result()
	if err != nil {
		return 0, apperrors.New(apperrors.ErrCodeRedisError, "读取订单序号失败: "+err.Error())
	}
	if exists == 0 {
		latest, err := s.repo.LatestNumber(ctx)
		if err != nil {
			return 0, err
		}
		seed := order.NextAfter(latest, s.start) - 1
		if err := s.client.SetNX(ctx, s.key, seed, 0).Err(); err != nil {
			return 0, apperrors.New(apperrors.ErrCodeRedisError, "初始化订单序号失败: "+err.Error())
		}
	}

	n, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return 0, apperrors.New(apperrors.ErrCodeRedisError, "分配订单序号失败: "+err.Error())
	}
	return n, nil
}
