package redis

import (
	"context"
	_ "embed"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/xiebiao/smb-erp/pkg/errors"
)

//go:embed unlock.lua
var unlockLua string

var unlockScript = redis.NewScript(unlockLua)

//go:embed renew.lua
var renewLua string

var renewScript = redis.NewScript(renewLua)

// KeyLocker 基于Redis的按键互斥锁(多实例部署)
//
// 教学要点：
//  1. 加锁：SET key token NX PX ttl，原子地"不存在才写入+过期时间"
//  2. 解锁：Lua脚本比较token再删除，防止误删别人的锁
//  3. TTL防止进程崩溃后死锁；持有期间后台每TTL/3续期一次(看门狗)，
//     业务耗时超过TTL也不会被别的实例抢走，进程崩溃后最多TTL时间自动释放
//  4. 拿不到锁时按固定间隔重试，直到ctx超时
type KeyLocker struct {
	client   *redis.Client
	prefix   string
	ttl      time.Duration
	interval time.Duration
	log      *zap.Logger
}

// NewKeyLocker 创建分布式锁
func NewKeyLocker(client *redis.Client, ttl time.Duration, log *zap.Logger) *KeyLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &KeyLocker{
		client:   client,
		prefix:   "erp:lock:",
		ttl:      ttl,
		interval: 20 * time.Millisecond,
		log:      log,
	}
}

// Lock 获取锁，返回的unlock可重复调用
func (l *KeyLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, apperrors.New(apperrors.ErrCodeRedisError, "获取分布式锁失败: "+err.Error())
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(lockKey, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// 调用方ctx可能已取消，解锁使用独立的短超时
			unlockCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := unlockScript.Run(unlockCtx, l.client, []string{lockKey}, token).Err(); err != nil {
				l.log.Warn("释放分布式锁失败，等待TTL过期", zap.String("key", lockKey), zap.Error(err))
			}
		})
	}, nil
}

// keepAlive 持有期间定期续期，直到stop关闭或锁已不属于自己
func (l *KeyLocker) keepAlive(lockKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(max(l.ttl/3, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), max(l.ttl/3, 100*time.Millisecond))
		n, err := renewScript.Run(ctx, l.client, []string{lockKey}, token, l.ttl.Milliseconds()).Int()
		cancel()
		switch {
		case err != nil:
			// 暂时失败下一轮再试，剩余TTL还够
			l.log.Warn("分布式锁续期失败", zap.String("key", lockKey), zap.Error(err))
		case n == 0:
			l.log.Error("分布式锁已过期被释放，停止续期", zap.String("key", lockKey))
			return
		}
	}
}
