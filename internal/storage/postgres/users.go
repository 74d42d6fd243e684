package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hongminglow/express-accounts/internal/models"
	"github.com/hongminglow/express-accounts/internal/storage"
)

const uniqueViolation = "23505"

var _ storage.UserRepository = (*UserRepository)(nil)

// UserRepository persists users through any DBTX.
type UserRepository struct {
	db      DBTX
	written func(int64) int64
}

// NewUserRepository binds a repository to db.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// EmailExists reports whether a user with the email is stored.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// FindByEmail fetches a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
	SELECT id, email, username, password_hash, confirmed, role, created_at, updated_at
	FROM users
	WHERE email = $1
	`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// FindByID fetches a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (models.User, error) {
	const query = `
	SELECT id, email, username, password_hash, confirmed, role, created_at, updated_at
	FROM users
	WHERE id = $1
	`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// Insert creates a user row. A duplicate email yields storage.ErrAlreadyExists.
func (r *UserRepository) Insert(ctx context.Context, user models.User) (models.User, error) {
	const query = `
	INSERT INTO users (email, username, password_hash, confirmed, role)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at, updated_at
	`
	user.Role = user.Role.OrDefault()
	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Confirmed, user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("db error: %w", err)
	}
	r.track(1)
	return user, nil
}

// MarkConfirmed sets the confirmed flag on the user.
func (r *UserRepository) MarkConfirmed(ctx context.Context, id int64) (models.User, error) {
	const query = `
	UPDATE users SET confirmed = TRUE, updated_at = NOW()
	WHERE id = $1
	RETURNING id, email, username, password_hash, confirmed, role, created_at, updated_at
	`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return models.User{}, err
	}
	r.track(1)
	return user, nil
}

func (r *UserRepository) track(n int64) {
	if r.written != nil {
		r.written(n)
	}
}

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	var role string
	if err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash,
		&user.Confirmed, &role, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, fmt.Errorf("db error: %w", err)
	}
	user.Role = models.Role(role).OrDefault()
	return user, nil
}
