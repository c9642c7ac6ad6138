package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld indicates the lock stayed held for the whole acquire window.
var ErrLockHeld = errors.New("platform/cache: lock held")

// Locker serializes cross-process writes with Redis SET NX locks. Each lock
// stores a random token so only the owner releases it.
type Locker struct {
	client  *redis.Client
	ttl     time.Duration
	retry   time.Duration
	timeout time.Duration
}

// NewLocker builds a Locker with sane defaults: 30s lease, 50ms retry pace,
// 5s acquire window.
func NewLocker(client *redis.Client) *Locker {
	return &Locker{
		client:  client,
		ttl:     30 * time.Second,
		retry:   50 * time.Millisecond,
		timeout: 5 * time.Second,
	}
}

// WithLock runs fn while holding the named lock.
func (l *Locker) WithLock(ctx context.Context, key string, fn func() error) error {
	token := uuid.NewString()
	if err := l.acquire(ctx, key, token); err != nil {
		return err
	}
	defer l.release(context.WithoutCancel(ctx), key, token)
	return fn()
}

func (l *Locker) acquire(ctx context.Context, key, token string) error {
	deadline := time.Now().Add(l.timeout)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("platform/cache: acquire %s: %w", key, err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", ErrLockHeld, key)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

// releaseScript deletes the key only when the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *Locker) release(ctx context.Context, key, token string) {
	_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
}
