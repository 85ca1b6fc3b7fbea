package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iho/precatorio/internal/infrastructure/postgres/generated"
)

type pgxBeginner interface {
	Begin(context.Context) (pgx.Tx, error)
}

// TxManager runs a unit of work inside one transaction.
type TxManager struct {
	pool pgxBeginner
}

func newTxManager(pool pgxBeginner) *TxManager {
	return &TxManager{pool: pool}
}

// WithinTx runs fn with queries bound to a new transaction. The transaction is
// committed when fn succeeds and rolled back otherwise.
func (m *TxManager) WithinTx(ctx context.Context, fn func(q *generated.Queries) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(generated.New(tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
