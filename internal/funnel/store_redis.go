package funnel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"funnelgate/pkg/platform/sentinel"
)

const handoffKeyPrefix = "funnel:handoff:"

// RedisHandoffStore shares mid-redirect records across instances so the
// autofill endpoint works regardless of which instance serves the quiz.
type RedisHandoffStore struct {
	client *redis.Client
}

func NewRedisHandoffStore(client *redis.Client) *RedisHandoffStore {
	return &RedisHandoffStore{client: client}
}

func (s *RedisHandoffStore) Set(ctx context.Context, vid string, record Handoff, ttl time.Duration) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("handoff marshal: %w", err)
	}
	return s.client.Set(ctx, handoffKeyPrefix+vid, encoded, ttl).Err()
}

func (s *RedisHandoffStore) Take(ctx context.Context, vid string) (Handoff, error) {
	raw, err := s.client.GetDel(ctx, handoffKeyPrefix+vid).Result()
	if errors.Is(err, redis.Nil) {
		return Handoff{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Handoff{}, fmt.Errorf("handoff take: %w", sentinel.ErrUnavailable)
	}

	var record Handoff
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return Handoff{}, fmt.Errorf("handoff decode: %w", sentinel.ErrMalformed)
	}
	return record, nil
}
