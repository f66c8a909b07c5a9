package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("calendar lock not acquired")
)

// Locker serializes check-then-insert booking sections per calendar resource.
// Two sessions racing on the same practitioner's calendar cannot both enter
// the critical section; the loser gets ErrLockNotAcquired.
type Locker interface {
	WithCalendarLock(ctx context.Context, resourceID string, fn func(ctx context.Context) error) error
}

type redisCalendarLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCalendarLocker creates a locker that uses a per resource Redis key.
func NewRedisCalendarLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisCalendarLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisCalendarLocker) WithCalendarLock(ctx context.Context, resourceID string, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:calendar:%s", resourceID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire calendar lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisCalendarLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release calendar lock: %w", err)
	}
	return nil
}
