package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLocker(client), srv
}

func TestWithLockSerializes(t *testing.T) {
	locker, _ := testLocker(t)
	ctx := context.Background()

	var mu sync.Mutex
	var active, maxActive int
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(ctx, "orders:lock-test", func() error {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()
				time.Sleep(5 * time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, 1, maxActive)
}

func TestWithLockTimesOutWhenHeld(t *testing.T) {
	locker, srv := testLocker(t)
	locker.timeout = 100 * time.Millisecond
	ctx := context.Background()

	// A foreign process holds the lock.
	require.NoError(t, srv.Set("orders:held", "other-token"))

	err := locker.WithLock(ctx, "orders:held", func() error { return nil })
	require.ErrorIs(t, err, ErrLockHeld)
}

func TestReleaseOnlyByOwner(t *testing.T) {
	locker, srv := testLocker(t)
	ctx := context.Background()

	require.NoError(t, srv.Set("orders:foreign", "other-token"))
	locker.release(ctx, "orders:foreign", "not-my-token")
	value, err := srv.Get("orders:foreign")
	require.NoError(t, err)
	require.Equal(t, "other-token", value)
}

func TestLockReleasedAfterCallback(t *testing.T) {
	locker, srv := testLocker(t)
	ctx := context.Background()

	require.NoError(t, locker.WithLock(ctx, "orders:release-test", func() error { return nil }))
	require.False(t, srv.Exists("orders:release-test"))
}
