package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt work factor used when none is configured.
const DefaultPasswordCost = 12

// bcryptMaxBytes is the longest input bcrypt accepts.
const bcryptMaxBytes = 72

// ErrEmptyPassword is returned when asked to hash an empty password.
var ErrEmptyPassword = errors.New("password must not be empty")

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	Hash(password string, cost int) (string, error)
	Verify(password, hash string) bool
}

// BcryptHasher is a stateless bcrypt PasswordHasher.
type BcryptHasher struct{}

var _ PasswordHasher = BcryptHasher{}

// Hash returns a salted bcrypt hash. Costs outside bcrypt's range are clamped.
// Passwords longer than bcrypt's 72-byte limit are hashed with SHA-256 first.
func (BcryptHasher) Hash(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	h, err := bcrypt.GenerateFromPassword(bcryptInput(password), clampCost(cost))
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify reports whether password matches hash. A malformed hash is a mismatch.
func (BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password)) == nil
}

func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxBytes {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

func clampCost(cost int) int {
	switch {
	case cost == 0:
		return DefaultPasswordCost
	case cost < bcrypt.MinCost:
		return bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		return bcrypt.MaxCost
	}
	return cost
}
