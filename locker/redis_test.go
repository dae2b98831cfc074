package locker

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// newTestRedisLocker connects to a live server; set REDIS_TEST_ADDRESS to enable it
func newTestRedisLocker(t *testing.T, ttl time.Duration) (*RedisLocker, *redis.Client) {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDRESS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return NewRedisLocker(client, "parkwatch_test:lock:"+primitive.NewObjectID().Hex(), ttl), client
}

func TestRedisLocker_Exclusive(t *testing.T) {
	lk, _ := newTestRedisLocker(t, 5*time.Second)

	var holders, overlaps, done atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := lk.Lock(context.Background(), "plate:ABC123")
			if !assert.NoError(t, err) {
				return
			}
			if holders.Add(1) > 1 {
				overlaps.Add(1)
			}
			time.Sleep(time.Millisecond)
			holders.Add(-1)
			done.Add(1)
			unlock()
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 20, done.Load())
	assert.Zero(t, overlaps.Load())
}

func TestRedisLocker_ContextCancel(t *testing.T) {
	lk, client := newTestRedisLocker(t, 5*time.Second)

	unlock, err := lk.Lock(context.Background(), "plate:ABC123")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = lk.Lock(ctx, "plate:ABC123")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	n, err := client.Exists(context.Background(), lk.prefix+":plate:ABC123").Result()
	require.NoError(t, err)
	assert.Zero(t, n, "unlock removes the key")

	unlock2, err := lk.Lock(context.Background(), "plate:ABC123")
	require.NoError(t, err)
	unlock2()
}

func TestRedisLocker_ExpiredLockIsNotReleasedByOldHolder(t *testing.T) {
	lk, client := newTestRedisLocker(t, 200*time.Millisecond)
	key := lk.prefix + ":plate:ABC123"

	stale, err := lk.Lock(context.Background(), "plate:ABC123")
	require.NoError(t, err)

	// the TTL frees the key for a second holder
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	unlock, err := lk.Lock(ctx, "plate:ABC123")
	require.NoError(t, err)

	stale()
	n, err := client.Exists(context.Background(), key).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "the second holder keeps its lock")

	unlock()
	n, err = client.Exists(context.Background(), key).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}
