package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/printdesk-next/internal/cache"
	"github.com/printdesk-next/internal/logger"

	"github.com/google/uuid"
)

const redisLockRetryInterval = 50 * time.Millisecond

// OrderLocker 单订单临界区
type OrderLocker interface {
	// Lock 获取订单锁，返回释放函数；等待超时返回 ErrConcurrentModification，ctx 取消返回 ErrLockFailed
	Lock(ctx context.Context, orderID uint) (func(), error)
}

// NewOrderLocker Redis 可用时使用分布式锁，否则使用进程内锁
func NewOrderLocker(timeout, ttl time.Duration) OrderLocker {
	if cache.Enabled() {
		return NewRedisOrderLocker(timeout, ttl)
	}
	return NewLocalOrderLocker(timeout)
}

// LocalOrderLocker 进程内按订单加锁
type LocalOrderLocker struct {
	mu      sync.Mutex
	slots   map[uint]*lockSlot
	timeout time.Duration
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

// NewLocalOrderLocker 创建进程内订单锁
func NewLocalOrderLocker(timeout time.Duration) *LocalOrderLocker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LocalOrderLocker{
		slots:   make(map[uint]*lockSlot),
		timeout: timeout,
	}
}

// Lock 获取订单锁
func (l *LocalOrderLocker) Lock(ctx context.Context, orderID uint) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[orderID]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[orderID] = slot
	}
	slot.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.ch
				l.release(orderID, slot)
			})
		}, nil
	case <-timer.C:
		l.release(orderID, slot)
		return nil, ErrConcurrentModification
	case <-ctx.Done():
		l.release(orderID, slot)
		return nil, fmt.Errorf("%w: %w", ErrLockFailed, ctx.Err())
	}
}

func (l *LocalOrderLocker) release(orderID uint, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, orderID)
	}
}

// RedisOrderLocker 基于 Redis SET NX 的分布式订单锁
type RedisOrderLocker struct {
	timeout time.Duration
	ttl     time.Duration
}

// NewRedisOrderLocker 创建分布式订单锁
func NewRedisOrderLocker(timeout, ttl time.Duration) *RedisOrderLocker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisOrderLocker{timeout: timeout, ttl: ttl}
}

// Lock 获取订单锁
func (l *RedisOrderLocker) Lock(ctx context.Context, orderID uint) (func(), error) {
	key := cache.OrderLockKey(orderID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.timeout)

	for {
		acquired, err := cache.TryLock(ctx, key, token, l.ttl)
		if err != nil {
			if errors.Is(err, cache.ErrLockUnavailable) {
				return nil, ErrLockFailed
			}
			return nil, fmt.Errorf("%w: %w", ErrLockFailed, err)
		}
		if acquired {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrConcurrentModification
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrLockFailed, ctx.Err())
		case <-time.After(redisLockRetryInterval):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			released, err := cache.Unlock(releaseCtx, key, token)
			if err != nil {
				logger.Warnw("order_lock_release_failed", "order_id", orderID, "error", err)
				return
			}
			if !released {
				logger.Warnw("order_lock_expired_before_release", "order_id", orderID)
			}
		})
	}, nil
}
