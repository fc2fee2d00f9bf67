package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	cli *redis.Client
}

// NewRedisStore connects to Redis and verifies it with a ping.
func NewRedisStore(ctx context.Context, url string) (Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisStore{cli: cli}, nil
}

func (s *redisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := "ratelimit:" + key
	n, err := s.cli.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		s.cli.Expire(ctx, k, window)
	}
	return n, nil
}

func (s *redisStore) Close() error {
	return s.cli.Close()
}
