// Package storage holds the key/value backends that store snapshots and the
// Snapshot adapter that hydrates and persists a store's state.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Storage is a durable key/value store for serialized snapshots.
type Storage interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set overwrites the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Key joins the non-empty parts of a storage key with ":".
func Key(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ":")
}

// Clients carries the connections a driver may need.
type Clients struct {
	Redis    redis.Cmdable
	Postgres Pool
	TTL      time.Duration
	Logger   *zap.Logger
}

// Open builds the Storage selected by driver. clients carries the
// connections the driver needs; unused fields may be nil.
func Open(driver string, clients Clients) (Storage, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverRedis:
		if clients.Redis == nil {
			return nil, fmt.Errorf("storage driver %q requires a redis client", driver)
		}
		return NewRedis(clients.Redis, clients.TTL, clients.Logger), nil
	case DriverPostgres:
		if clients.Postgres == nil {
			return nil, fmt.Errorf("storage driver %q requires a postgres pool", driver)
		}
		return NewPostgres(clients.Postgres, clients.Logger), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
