package ratelimit_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/gateway/ratelimit"
)

// newMiniredis starts an in-process Redis that runs the store's Lua script.
func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return m, rdb
}

func TestRedisStore_Take(t *testing.T) {
	t.Parallel()

	_, rdb := newMiniredis(t)
	s := ratelimit.NewRedisStore(rdb)
	ctx := context.Background()
	now := time.Now()

	for _, want := range []int{1, 2, 3, 3} {
		rec, err := s.Take(ctx, "k", 2, time.Minute, now)
		require.NoError(t, err)
		assert.Equal(t, want, rec.Count, "count stops one past the limit")
		assert.Equal(t, "k", rec.Key)
		assert.WithinDuration(t, now, rec.WindowStart, time.Second)
	}
}

func TestRedisStore_KeyPrefix(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		prefix  string
		wantKey string
	}{
		"default":        {wantKey: "ratelimit:1.2.3.4"},
		"custom":         {prefix: "gw", wantKey: "gw:1.2.3.4"},
		"trimmed colons": {prefix: ":gw:", wantKey: "gw:1.2.3.4"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			m, rdb := newMiniredis(t)
			var opts []ratelimit.RedisOption
			if tc.prefix != "" {
				opts = append(opts, ratelimit.WithKeyPrefix(tc.prefix))
			}
			s := ratelimit.NewRedisStore(rdb, opts...)

			_, err := s.Take(context.Background(), "1.2.3.4", 5, time.Minute, time.Now())
			require.NoError(t, err)

			got, err := m.Get(tc.wantKey)
			require.NoError(t, err)
			assert.Equal(t, "1", got)
		})
	}
}

func TestRedisStore_Expires(t *testing.T) {
	t.Parallel()

	m, rdb := newMiniredis(t)
	s := ratelimit.NewRedisStore(rdb)
	ctx := context.Background()

	_, err := s.Take(ctx, "k", 1, 100*time.Millisecond, time.Now())
	require.NoError(t, err)
	rec, err := s.Take(ctx, "k", 1, 100*time.Millisecond, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Count)

	m.FastForward(200 * time.Millisecond)

	rec, err = s.Take(ctx, "k", 1, 100*time.Millisecond, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Count, "a new window starts after expiry")
}

func TestRedisStore_RepairsMissingTTL(t *testing.T) {
	t.Parallel()

	m, rdb := newMiniredis(t)
	require.NoError(t, m.Set("ratelimit:k", "1"))
	s := ratelimit.NewRedisStore(rdb)

	rec, err := s.Take(context.Background(), "k", 5, time.Minute, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 2, rec.Count)
	assert.Equal(t, time.Minute, m.TTL("ratelimit:k"))
}

func TestRedisStore_Unavailable(t *testing.T) {
	t.Parallel()

	m, rdb := newMiniredis(t)
	s := ratelimit.NewRedisStore(rdb)
	m.Close()

	_, err := s.Take(context.Background(), "k", 5, time.Minute, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis take")
}

func TestRedisStore_Limiter(t *testing.T) {
	t.Parallel()

	_, rdb := newMiniredis(t)
	store := ratelimit.NewRedisStore(rdb)
	l, err := ratelimit.New(2, time.Minute, ratelimit.WithStore(store))
	require.NoError(t, err)

	var allowed int
	for range 4 {
		d, err := l.Check(context.Background(), "client")
		require.NoError(t, err)
		if d.Allowed {
			allowed++
		}
	}
	assert.Equal(t, 2, allowed)
}

// TestRedisStore_Server runs the script against a real Redis at REDIS_ADDR.
func TestRedisStore_Server(t *testing.T) {
	t.Parallel()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())

	s := ratelimit.NewRedisStore(rdb, ratelimit.WithKeyPrefix("test:"+uuid.NewString()))
	for _, want := range []int{1, 2, 3, 3} {
		rec, err := s.Take(context.Background(), "k", 2, time.Minute, time.Now())
		require.NoError(t, err)
		assert.Equal(t, want, rec.Count)
	}
}
