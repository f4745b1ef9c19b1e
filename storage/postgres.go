package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"gofalre.io/storefront/driver"
)

var _ Storage = (*Postgres)(nil)

// Pool is the subset of *pgxpool.Pool the snapshot table needs.
type Pool interface {
	driver.TxBeginner
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

const (
	createSnapshotsTableSQL = `
CREATE TABLE IF NOT EXISTS storefront_snapshots (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

	createSnapshotsUpdatedIndexSQL = `
CREATE INDEX IF NOT EXISTS storefront_snapshots_updated_at_idx
ON storefront_snapshots (updated_at)`

	pruneSnapshotsSQL = `DELETE FROM storefront_snapshots WHERE updated_at < $1`

	getSnapshotSQL = `SELECT value FROM storefront_snapshots WHERE key = $1`

	upsertSnapshotSQL = `
INSERT INTO storefront_snapshots (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, updated_at = now()`

	deleteSnapshotSQL = `DELETE FROM storefront_snapshots WHERE key = $1`
)

// Postgres keeps snapshots in the storefront_snapshots table, one row per key.
type Postgres struct {
	conn   Pool
	tm     *driver.TransactionManager
	logger *zap.Logger
}

func NewPostgres(conn Pool, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{
		conn:   conn,
		tm:     driver.NewTransactionManager(conn, logger),
		logger: logger,
	}
}

// Migrate creates the snapshot table and its index in one transaction.
func (p *Postgres) Migrate(ctx context.Context) error {
	return p.tm.ExecuteTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, createSnapshotsTableSQL); err != nil {
			return fmt.Errorf("create storefront_snapshots: %w", err)
		}
		if _, err := tx.Exec(ctx, createSnapshotsUpdatedIndexSQL); err != nil {
			return fmt.Errorf("create storefront_snapshots index: %w", err)
		}
		return nil
	})
}

// Prune deletes snapshots not written for longer than maxAge and reports how
// many rows went.
func (p *Postgres) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	tag, err := p.conn.Exec(ctx, pruneSnapshotsSQL, time.Now().Add(-maxAge))
	if err != nil {
		p.logger.Error("Failed to prune snapshots", zap.Error(err))
		return 0, fmt.Errorf("prune storefront_snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.conn.QueryRow(ctx, getSnapshotSQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		p.logger.Error("Failed to get snapshot", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return value, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	if _, err := p.conn.Exec(ctx, upsertSnapshotSQL, key, value); err != nil {
		p.logger.Error("Failed to upsert snapshot", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.conn.Exec(ctx, deleteSnapshotSQL, key); err != nil {
		p.logger.Error("Failed to delete snapshot", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}
