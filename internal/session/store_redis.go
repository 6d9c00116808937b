package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"funnelgate/pkg/platform/sentinel"
)

const sessionKeyPrefix = "funnel:sess:"

// RedisStore is the production token cache shared across instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, vid string) (string, error) {
	token, err := s.client.Get(ctx, sessionKeyPrefix+vid).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("session cache get: %w", sentinel.ErrUnavailable)
	}
	return token, nil
}

func (s *RedisStore) Set(ctx context.Context, vid, token string, ttl time.Duration) error {
	return s.client.Set(ctx, sessionKeyPrefix+vid, token, ttl).Err()
}
