package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/express-accounts/internal/models"
	"github.com/hongminglow/express-accounts/internal/storage"
)

var userColumns = []string{"id", "email", "username", "password_hash", "confirmed", "role", "created_at", "updated_at"}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestEmailExists(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`(?s)^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1\)$`).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.EmailExists(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestEmailExists_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT\s+EXISTS`).WillReturnError(errors.New("db down"))

	_, err := repo.EmailExists(context.Background(), "a@b.com")
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func TestFindByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(`(?s)SELECT\s+id,\s*email.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1`).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(int64(3), "a@b.com", "alice", "hash", false, "admin", now, now))

	u, err := repo.FindByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, int64(3), u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "hash", u.PasswordHash)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.False(t, u.Confirmed)
}

func TestFindByEmail_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+email`).
		WithArgs("ghost@b.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@b.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFindByID_UnknownRoleFallsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(int64(9), "a@b.com", "alice", "hash", true, "player", now, now))

	u, err := repo.FindByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStandard, u.Role)
	assert.True(t, u.Confirmed)
}

func TestInsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+users\s*\(email,\s*username,\s*password_hash,\s*confirmed,\s*role\).*RETURNING\s+id,\s*created_at,\s*updated_at`).
		WithArgs("a@b.com", "alice", "hash", false, models.RoleStandard).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(42), now, now))

	u, err := repo.Insert(context.Background(), models.User{Email: "a@b.com", Username: "alice", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), u.ID)
	assert.Equal(t, models.RoleStandard, u.Role)
	assert.Equal(t, now, u.CreatedAt)
}

func TestInsert_UniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_unique_idx"})

	_, err := repo.Insert(context.Background(), models.User{Email: "a@b.com", Username: "alice", PasswordHash: "hash"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestInsert_OtherPgError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23502"})

	_, err := repo.Insert(context.Background(), models.User{Email: "a@b.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestMarkConfirmed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(`(?s)UPDATE\s+users\s+SET\s+confirmed\s*=\s*TRUE.*WHERE\s+id\s*=\s*\$1.*RETURNING`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(int64(7), "a@b.com", "alice", "hash", true, "standard", now, now))

	u, err := repo.MarkConfirmed(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, u.Confirmed)
}

func TestMarkConfirmed_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`UPDATE\s+users`).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.MarkConfirmed(context.Background(), 404)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
