package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another holder owns the key.
var ErrLockHeld = errors.New("platform/cache: lock held")

// releaseScript deletes the key only when the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out short-lived exclusive locks stored in Redis.
type Locker struct {
	client redis.UniversalClient
	ttl    time.Duration
	retry  time.Duration
	wait   time.Duration
}

// NewLocker builds a Locker. Acquire waits up to wait for a held key.
func NewLocker(client redis.UniversalClient, ttl, wait time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Locker{client: client, ttl: ttl, retry: 50 * time.Millisecond, wait: wait}
}

// Acquire takes the lock on key and returns its release function.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("platform/cache: acquire %s: %w", key, err)
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrLockHeld, key)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}
