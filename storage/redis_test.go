package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(ctx context.Context, t *testing.T) *redis.Client {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestRedisIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client := startRedis(ctx, t)
	store := NewRedis(client, time.Hour, nil)

	_, err := store.Get(ctx, "storefront:s1:cafe-aurora-cart")
	assert.ErrorIs(t, err, ErrNotFound)

	payload := []byte(`{"items":[],"totalItems":0,"subtotal":0}`)
	require.NoError(t, store.Set(ctx, "storefront:s1:cafe-aurora-cart", payload))

	got, err := store.Get(ctx, "storefront:s1:cafe-aurora-cart")
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(got))

	ttl, err := client.TTL(ctx, "storefront:s1:cafe-aurora-cart").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Delete(ctx, "storefront:s1:cafe-aurora-cart"))
	_, err = store.Get(ctx, "storefront:s1:cafe-aurora-cart")
	assert.ErrorIs(t, err, ErrNotFound)
}
