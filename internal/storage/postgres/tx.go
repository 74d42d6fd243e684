package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hongminglow/express-accounts/internal/storage"
)

var _ storage.Tx = (*Tx)(nil)

// Tx is a database transaction handing out repositories bound to it.
type Tx struct {
	tx       *sql.Tx
	users    *UserRepository
	consumed *ConsumedTokens
	pending  atomic.Int64
}

func newTx(sqlTx *sql.Tx) *Tx {
	t := &Tx{tx: sqlTx, consumed: NewConsumedTokens(sqlTx)}
	t.users = &UserRepository{db: sqlTx, written: t.pending.Add}
	return t
}

// Users returns the user repository bound to this transaction.
func (t *Tx) Users() storage.UserRepository {
	return t.users
}

// ConsumedTokens returns the consumed token table bound to this transaction.
func (t *Tx) ConsumedTokens() storage.ConsumedTokenStore {
	return t.consumed
}

// SaveChanges reports the rows written since the previous call.
func (t *Tx) SaveChanges(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return t.pending.Swap(0), nil
}

// Commit makes the transaction's writes visible.
func (t *Tx) Commit(context.Context) error {
	if err := t.tx.Commit(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return storage.ErrTxDone
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback discards the transaction's writes.
func (t *Tx) Rollback(context.Context) error {
	if err := t.tx.Rollback(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return storage.ErrTxDone
		}
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}
