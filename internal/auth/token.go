package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hongminglow/express-accounts/internal/models"
	"github.com/hongminglow/express-accounts/internal/result"
)

const (
	// ConfirmationTokenTTL is the fixed lifetime of account confirmation tokens.
	ConfirmationTokenTTL = 12 * time.Hour
	// DefaultAuthenticationTTL is used when the authentication block sets no TTL.
	DefaultAuthenticationTTL = 7 * 24 * time.Hour
)

// Claim names on the wire.
const (
	ClaimEmail      = "email"
	ClaimUniqueName = "unique_name"
	ClaimRole       = "role"
)

// ErrMissingClaims is returned when a validated token lacks the expected claims.
var ErrMissingClaims = errors.New("token is missing required claims")

// TokenOptions configures one family of tokens.
type TokenOptions struct {
	Secret       string
	Issuer       string
	Audience     string
	RequireHTTPS bool
	TTL          time.Duration
}

// ValidatedToken is a token whose signature and lifetime have been checked.
type ValidatedToken struct {
	raw    string
	claims jwt.MapClaims
}

// Raw returns the compact serialisation the token was parsed from.
func (v *ValidatedToken) Raw() string { return v.raw }

// ExpiresAt returns the exp claim, or the zero time if absent.
func (v *ValidatedToken) ExpiresAt() time.Time {
	exp, err := v.claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// ConfirmationClaims are the values carried by a confirmation token.
type ConfirmationClaims struct {
	UserID int64
	Email  string
}

// AuthenticationClaims are the values carried by an authentication token.
type AuthenticationClaims struct {
	UserID    int64
	Role      models.Role
	ExpiresAt time.Time
}

// TokenManager issues and validates HS256 JWTs for the confirmation and
// authentication flows. Its options are fixed at construction.
type TokenManager struct {
	confirmation   TokenOptions
	authentication TokenOptions
	now            func() time.Time
}

// NewTokenManager creates a manager from the two option blocks.
func NewTokenManager(confirmation, authentication TokenOptions) *TokenManager {
	confirmation.TTL = ConfirmationTokenTTL
	if authentication.TTL <= 0 {
		authentication.TTL = DefaultAuthenticationTTL
	}
	return &TokenManager{
		confirmation:   confirmation,
		authentication: authentication,
		now:            time.Now,
	}
}

// ConfirmationOptions returns a copy of the confirmation block.
func (m *TokenManager) ConfirmationOptions() TokenOptions { return m.confirmation }

// AuthenticationOptions returns a copy of the authentication block.
func (m *TokenManager) AuthenticationOptions() TokenOptions { return m.authentication }

// IssueConfirmationToken signs a confirmation token for the user. It panics
// when the confirmation secret is blank.
func (m *TokenManager) IssueConfirmationToken(userID int64, email string) (string, error) {
	key := signingKey(m.confirmation)
	now := m.now()
	claims := jwt.MapClaims{
		ClaimEmail:      email,
		ClaimUniqueName: strconv.FormatInt(userID, 10),
		"iat":           now.Unix(),
		"nbf":           now.Unix(),
		"exp":           now.Add(ConfirmationTokenTTL).Unix(),
	}
	return sign(claims, key)
}

// ValidateConfirmationToken checks signature, exp and nbf with zero clock
// skew. Issuer and audience are not checked. Every rejection yields the same
// unauthorized failure.
func (m *TokenManager) ValidateConfirmationToken(token string) result.Result[*ValidatedToken] {
	key := signingKey(m.confirmation)
	claims, err := m.parse(token, key)
	if err != nil {
		return result.Failure[*ValidatedToken](UnauthorizedError())
	}
	return result.Success(&ValidatedToken{raw: token, claims: claims})
}

// ExtractClaims reads the user id and email from a validated confirmation
// token.
func (m *TokenManager) ExtractClaims(t *ValidatedToken) (ConfirmationClaims, error) {
	if t == nil {
		return ConfirmationClaims{}, fmt.Errorf("extract claims: %w", ErrMissingClaims)
	}
	id, err := userID(t.claims)
	if err != nil {
		return ConfirmationClaims{}, err
	}
	email, _ := t.claims[ClaimEmail].(string)
	if strings.TrimSpace(email) == "" {
		return ConfirmationClaims{}, fmt.Errorf("extract claims: %s: %w", ClaimEmail, ErrMissingClaims)
	}
	return ConfirmationClaims{UserID: id, Email: email}, nil
}

// IssueAuthenticationToken signs an authentication token for the user. It
// panics when the authentication secret is blank.
func (m *TokenManager) IssueAuthenticationToken(userID int64, role models.Role) (string, error) {
	key := signingKey(m.authentication)
	now := m.now()
	claims := jwt.MapClaims{
		ClaimUniqueName: strconv.FormatInt(userID, 10),
		ClaimRole:       string(role.OrDefault()),
		"iat":           now.Unix(),
		"nbf":           now.Unix(),
		"exp":           now.Add(m.authentication.TTL).Unix(),
	}
	if m.authentication.Issuer != "" {
		claims["iss"] = m.authentication.Issuer
	}
	if m.authentication.Audience != "" {
		claims["aud"] = m.authentication.Audience
	}
	return sign(claims, key)
}

// ValidateAuthenticationToken checks an authentication token, enforcing the
// configured issuer and audience, and returns its claims.
func (m *TokenManager) ValidateAuthenticationToken(token string) result.Result[AuthenticationClaims] {
	key := signingKey(m.authentication)

	var opts []jwt.ParserOption
	if m.authentication.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.authentication.Issuer))
	}
	if m.authentication.Audience != "" {
		opts = append(opts, jwt.WithAudience(m.authentication.Audience))
	}

	claims, err := m.parse(token, key, opts...)
	if err != nil {
		return result.Failure[AuthenticationClaims](UnauthorizedError())
	}
	id, err := userID(claims)
	if err != nil {
		return result.Failure[AuthenticationClaims](UnauthorizedError())
	}
	role, _ := claims[ClaimRole].(string)
	v := &ValidatedToken{raw: token, claims: claims}

	return result.Success(AuthenticationClaims{
		UserID:    id,
		Role:      models.Role(role).OrDefault(),
		ExpiresAt: v.ExpiresAt(),
	})
}

func (m *TokenManager) parse(token string, key []byte, extra ...jwt.ParserOption) (jwt.MapClaims, error) {
	opts := append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(m.now),
	}, extra...)

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return claims, nil
}

func sign(claims jwt.MapClaims, key []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

func signingKey(o TokenOptions) []byte {
	if strings.TrimSpace(o.Secret) == "" {
		panic("missing JWT secret")
	}
	return []byte(o.Secret)
}

func userID(claims jwt.MapClaims) (int64, error) {
	raw, ok := claims[ClaimUniqueName].(string)
	if !ok || raw == "" {
		return 0, fmt.Errorf("extract claims: %s: %w", ClaimUniqueName, ErrMissingClaims)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("extract claims: %s %q: %w", ClaimUniqueName, raw, ErrMissingClaims)
	}
	return id, nil
}

// UnauthorizedError is the failure returned for any rejected token.
func UnauthorizedError() *result.Error {
	return result.NewError(result.CodeInvalidJwtToken, result.TypeUnauthorized, result.Message{
		Message: "You do not have authorization for continue.",
		Action:  "Confirm your credentials.",
	})
}
