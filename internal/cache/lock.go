package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLockUnavailable 缓存未启用时无法获取分布式锁
var ErrLockUnavailable = errors.New("redis lock unavailable")

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// OrderLockKey 订单锁 key
func OrderLockKey(orderID uint) string {
	return fmt.Sprintf("lock:order:%d", orderID)
}

// TryLock 尝试以 token 持有锁，返回是否获得
func TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if !Enabled() {
		return false, ErrLockUnavailable
	}
	return redisClient.SetNX(ctx, buildKey(key), token, ttl).Result()
}

// Unlock 仅当锁仍由 token 持有时释放
func Unlock(ctx context.Context, key, token string) (bool, error) {
	if !Enabled() {
		return false, ErrLockUnavailable
	}
	released, err := releaseLockScript.Run(ctx, redisClient, []string{buildKey(key)}, token).Int64()
	if err != nil {
		return false, err
	}
	return released == 1, nil
}
