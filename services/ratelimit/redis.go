package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps fixed window counters in redis so limits hold across restarts.
type RedisStore struct {
	cl     redis.UniversalClient
	prefix string
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(cl redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{
		cl:     cl,
		prefix: prefix,
	}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	k := fmt.Sprintf("%s:ratelimit:%s", s.prefix, key)
	count, err := s.cl.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, errors.Wrap(err, "failed to increment counter")
	}
	if count == 1 {
		if err := s.cl.Expire(ctx, k, window).Err(); err != nil {
			return false, 0, errors.Wrap(err, "failed to set counter expiration")
		}
	}
	if count <= int64(limit) {
		return true, 0, nil
	}
	ttl, err := s.cl.TTL(ctx, k).Result()
	if err != nil {
		return false, 0, errors.Wrap(err, "failed to get counter ttl")
	}
	if ttl < 0 {
		// counter lost its expiration, start a new window
		if err := s.cl.Expire(ctx, k, window).Err(); err != nil {
			return false, 0, errors.Wrap(err, "failed to set counter expiration")
		}
		return false, window, nil
	}
	return false, ttl, nil
}
