package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/express-accounts/internal/storage"
)

func TestConsumedTokens_FirstUse(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewConsumedTokens(db)
	exp := time.Now().Add(time.Hour)

	mock.ExpectExec(`DELETE\s+FROM\s+consumed_confirmation_tokens\s+WHERE\s+expires_at\s*<\s*NOW\(\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`(?s)INSERT\s+INTO\s+consumed_confirmation_tokens.*ON\s+CONFLICT\s*\(token_hash\)\s+DO\s+NOTHING`).
		WithArgs(storage.TokenDigest("tok"), exp.UTC()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := store.Consume(context.Background(), "tok", exp)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConsumedTokens_AlreadyConsumed(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewConsumedTokens(db)

	mock.ExpectExec(`DELETE\s+FROM\s+consumed_confirmation_tokens`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT\s+INTO\s+consumed_confirmation_tokens`).WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := store.Consume(context.Background(), "tok", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConsumedTokens_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewConsumedTokens(db)

	mock.ExpectExec(`DELETE\s+FROM\s+consumed_confirmation_tokens`).WillReturnError(errors.New("db down"))

	_, err := store.Consume(context.Background(), "tok", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}
