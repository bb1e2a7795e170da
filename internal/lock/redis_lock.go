package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"

type RedisLock struct {
	rdb *redis.Client
}

func NewRedisLock(rdb *redis.Client) *RedisLock {
	return &RedisLock{rdb: rdb}
}

// TryLock takes key for token if nobody holds it. It does not wait.
func (l *RedisLock) TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, key, token, ttl).Result()
}

// Unlock releases key only if token still owns it.
func (l *RedisLock) Unlock(ctx context.Context, key, token string) error {
	return l.rdb.Eval(ctx, unlockScript, []string{key}, token).Err()
}
