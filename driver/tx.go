package driver

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// TxBeginner is satisfied by *pgxpool.Pool and pgxmock pools.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type TransactionManager struct {
	conn   TxBeginner
	logger *zap.Logger
}

func NewTransactionManager(conn TxBeginner, logger *zap.Logger) *TransactionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionManager{
		conn:   conn,
		logger: logger,
	}
}

func (m *TransactionManager) ExecuteTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return m.ExecuteTransactionWithOptions(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

// ExecuteTransactionWithOptions runs fn in a transaction, committing when fn
// returns nil and rolling back otherwise. A panic in fn rolls back and is
// re-raised.
func (m *TransactionManager) ExecuteTransactionWithOptions(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) (err error) {
	dbTx, err := m.conn.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction failed: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			m.rollback(ctx, dbTx)
			m.logger.Error("Panic in transaction", zap.Any("panic", p))
			panic(p)
		}
		if err != nil {
			m.rollback(ctx, dbTx)
			return
		}
		if err = dbTx.Commit(ctx); err != nil {
			m.logger.Error("Failed to commit transaction", zap.Error(err))
			err = fmt.Errorf("commit transaction failed: %w", err)
		}
	}()

	return fn(dbTx)
}

func (m *TransactionManager) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil {
		m.logger.Error("Failed to roll back transaction", zap.Error(err))
	}
}
