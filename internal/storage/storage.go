package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/hongminglow/express-accounts/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("transaction already committed or rolled back")

// UserRepository captures the persistence operations needed by the account
// service.
type UserRepository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
	// Insert stores the user and returns it with ID and timestamps assigned.
	Insert(ctx context.Context, user models.User) (models.User, error)
	// MarkConfirmed flips the confirmed flag and returns the updated user.
	MarkConfirmed(ctx context.Context, id int64) (models.User, error)
}

// Store hands out auto-commit repositories and transactions.
type Store interface {
	Users() UserRepository
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a unit of work. Writes made through Users and ConsumedTokens are
// visible to other sessions only after Commit.
type Tx interface {
	Users() UserRepository
	ConsumedTokens() ConsumedTokenStore
	// SaveChanges reports the rows written since the previous call.
	SaveChanges(ctx context.Context) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// ConsumedTokenStore records confirmation tokens that have been redeemed.
type ConsumedTokenStore interface {
	// Consume marks token as used until expiresAt. It reports false when the
	// token had already been consumed.
	Consume(ctx context.Context, token string, expiresAt time.Time) (bool, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TokenDigest returns the hex SHA-256 of a token. Consumed tokens are stored
// by digest only.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
