package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript applies the fixed-window rule atomically inside Redis. It returns
// the count after the update and the window's remaining time in milliseconds.
var takeScript = redis.NewScript(`
local count = redis.call('GET', KEYS[1])
if not count then
  redis.call('SET', KEYS[1], 1, 'PX', ARGV[2])
  return {1, tonumber(ARGV[2])}
end
count = tonumber(count)
if count <= tonumber(ARGV[1]) then
  count = redis.call('INCR', KEYS[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
  ttl = tonumber(ARGV[2])
end
return {count, ttl}
`)

// RedisStore keeps records in Redis so every instance behind a load balancer
// enforces one shared limit. Each key expires with its window.
type RedisStore struct {
	rdb    redis.Scripter
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix sets the prefix of the Redis keys (default: "ratelimit").
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

// NewRedisStore returns a store backed by rdb, typically a *redis.Client.
func NewRedisStore(rdb redis.Scripter, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		prefix: "ratelimit",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Take implements Store.
func (s *RedisStore) Take(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Record, error) {
	windowMS := window.Milliseconds()
	if windowMS <= 0 {
		windowMS = 1
	}

	res, err := takeScript.Run(ctx, s.rdb, []string{s.key(key)}, limit, windowMS).Int64Slice()
	if err != nil {
		return Record{}, fmt.Errorf("redis take: %w", err)
	}
	if len(res) != 2 {
		return Record{}, fmt.Errorf("redis take: unexpected reply %v", res)
	}

	remaining := time.Duration(res[1]) * time.Millisecond
	return Record{
		Key:         key,
		Count:       int(res[0]),
		WindowStart: now.Add(remaining - window),
	}, nil
}

func (s *RedisStore) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}
