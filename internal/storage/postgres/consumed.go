package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hongminglow/express-accounts/internal/storage"
)

var _ storage.ConsumedTokenStore = (*ConsumedTokens)(nil)

// ConsumedTokens tracks redeemed confirmation tokens in a table. Bound to a
// Tx it makes redemption commit or roll back together with the user update.
type ConsumedTokens struct {
	db DBTX
}

// NewConsumedTokens binds the store to db.
func NewConsumedTokens(db DBTX) *ConsumedTokens {
	return &ConsumedTokens{db: db}
}

// Consume records the token digest. Expired rows are purged first so a digest
// whose token has lapsed never blocks anything.
func (c *ConsumedTokens) Consume(ctx context.Context, token string, expiresAt time.Time) (bool, error) {
	const purge = `DELETE FROM consumed_confirmation_tokens WHERE expires_at < NOW()`
	const insert = `
	INSERT INTO consumed_confirmation_tokens (token_hash, expires_at)
	VALUES ($1, $2)
	ON CONFLICT (token_hash) DO NOTHING
	`
	if _, err := c.db.ExecContext(ctx, purge); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	res, err := c.db.ExecContext(ctx, insert, storage.TokenDigest(token), expiresAt.UTC())
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}
