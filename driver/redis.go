package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Snapshot reads and writes are single small GET/SET calls, so timeouts stay
// short and a failed call is retried a few times before storage.Redis logs
// it and the store keeps its in-memory state.
const (
	redisMaxRetries      = 3
	redisMinRetryBackoff = 100 * time.Millisecond
	redisMaxRetryBackoff = 300 * time.Millisecond
	redisDialTimeout     = 5 * time.Second
	redisIOTimeout       = 3 * time.Second
	redisPingTimeout     = 5 * time.Second
)

// ConnectRedis opens the client that backs storage.Redis and pings it. Key
// expiry is not configured here: storage.Redis refreshes the snapshot TTL on
// every write.
func ConnectRedis(ctx context.Context, addr string, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            addr,
		Password:        password,
		DB:              db,
		MaxRetries:      redisMaxRetries,
		MinRetryBackoff: redisMinRetryBackoff,
		MaxRetryBackoff: redisMaxRetryBackoff,
		DialTimeout:     redisDialTimeout,
		ReadTimeout:     redisIOTimeout,
		WriteTimeout:    redisIOTimeout,
	})

	if err := pingRedis(ctx, client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return client, nil
}

func pingRedis(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}
