// Package driver opens the connections the storefront's storage and
// notification layers run on.
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// maxOpenDbConn limits the number of concurrent connections to Postgres.
const maxOpenDbConn = 10

// maxDbLifetime is the maximum lifetime of a pooled connection before it is
// closed and replaced.
const maxDbLifetime = 5 * time.Minute

// ConnectSQL parses dsn, opens a pool and verifies that a connection can be
// acquired.
func ConnectSQL(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	config.MaxConns = int32(maxOpenDbConn)
	config.MaxConnLifetime = maxDbLifetime

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	if err = testDB(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return pool, nil
}

// testDB acquires and releases a connection from the pool
func testDB(ctx context.Context, p *pgxpool.Pool) error {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	return nil
}
