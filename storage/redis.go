package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ Storage = (*Redis)(nil)

// Redis stores each snapshot as a plain string value. A zero ttl keeps keys
// forever; otherwise every write refreshes the expiry.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedis(client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get snapshot from redis", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to set snapshot in redis", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("Failed to delete snapshot from redis", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}
