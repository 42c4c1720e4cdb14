package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kishore-anbalagan/learning-management-system-sub000/internal/platform/logger"
)

// ErrLockTimeout is returned when the lock could not be taken before the
// context ended.
var ErrLockTimeout = errors.New("redis lock: timed out waiting for lock")

// Deletes the key only while it still holds our token, so an expired holder
// never releases a lock someone else has since taken.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a single-instance SET NX PX mutex keyed by string.
type Locker struct {
	rdb    goredis.UniversalClient
	log    *logger.Logger
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

func NewLocker(rdb goredis.UniversalClient, log *logger.Logger, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Locker{
		rdb:    rdb,
		log:    log.With("service", "RedisLocker"),
		prefix: "lms:lock:",
		ttl:    ttl,
		retry:  20 * time.Millisecond,
	}
}

func (l *Locker) Backend() string { return "redis" }

// Lock blocks until key is held or ctx ends. The returned func releases it.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	if l == nil || l.rdb == nil {
		return nil, fmt.Errorf("redis lock: client not configured")
	}
	fullKey := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.rdb.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
			}
			return nil, fmt.Errorf("redis lock: %w", err)
		}
		if ok {
			return func() { l.release(fullKey, token) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		l.log.Warn("redis lock release failed", "key", key, "error", err)
	}
}
