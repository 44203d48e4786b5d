package tablestate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisAdapter stores JSON values in Redis without expiry.
type RedisAdapter struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisAdapter creates a RedisAdapter.
func NewRedisAdapter(client *redis.Client, logger *zap.Logger) *RedisAdapter {
	return &RedisAdapter{client: client, logger: logger}
}

func (a *RedisAdapter) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := a.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (a *RedisAdapter) Load(ctx context.Context, key string, dst any) (bool, error) {
	data, err := a.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return decode(a.logger, key, data, dst), nil
}

func (a *RedisAdapter) Erase(ctx context.Context, key string) error {
	if err := a.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (a *RedisAdapter) Apply(ctx context.Context, b Batch) error {
	values, err := b.encode()
	if err != nil {
		return err
	}
	_, err = a.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, data := range values {
			pipe.Set(ctx, key, data, 0)
		}
		if len(b.Erase) > 0 {
			pipe.Del(ctx, b.Erase...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis batch: %w", err)
	}
	return nil
}
