// Package keylock 提供进程内的按键互斥锁
//
// 每个键一把锁，不同键之间互不阻塞；没有等待者的键会被回收，
// 所以键空间(商品×库位)再大也不会无限增长。
//
// 加锁支持context：调用方可以给等锁设置超时，避免热点键上无限排队。
package keylock

import (
	"context"
	"sync"
)

// Locker 按键互斥锁，零值不可用，请使用New创建
type Locker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{} // 容量为1的信号量，放入即持有
	refs int           // 持有者+等待者数量，为0时回收
}

// New 创建按键互斥锁
func New() *Locker {
	return &Locker{locks: make(map[string]*entry)}
}

// Lock 获取key对应的锁
// 成功时返回unlock函数(只能调用一次)；ctx取消或超时时返回ctx.Err()
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	e := l.acquireEntry(key)

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.releaseEntry(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.releaseEntry(key, e)
		})
	}, nil
}

// Len 当前被持有或等待中的键数量
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func (l *Locker) acquireEntry(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *Locker) releaseEntry(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}
