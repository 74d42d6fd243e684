// Package service implements the account workflows: sign-up, email
// confirmation, confirmation token re-issue and login.
//
// Every operation returns a result.Result for outcomes the client can act on
// and an error for faults it cannot.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hongminglow/express-accounts/internal/auth"
	"github.com/hongminglow/express-accounts/internal/logging"
	"github.com/hongminglow/express-accounts/internal/models"
	"github.com/hongminglow/express-accounts/internal/models/dto"
	"github.com/hongminglow/express-accounts/internal/result"
	"github.com/hongminglow/express-accounts/internal/storage"
	"github.com/hongminglow/express-accounts/internal/validation"
)

var (
	// ErrAccountCreation wraps any fault raised while persisting a new account.
	ErrAccountCreation = errors.New("account creation failed")
	// ErrConfirmation wraps faults raised while confirming an account.
	ErrConfirmation = errors.New("account confirmation failed")
)

// Tokens is the token functionality the services depend on.
type Tokens interface {
	IssueConfirmationToken(userID int64, email string) (string, error)
	ValidateConfirmationToken(token string) result.Result[*auth.ValidatedToken]
	ExtractClaims(t *auth.ValidatedToken) (auth.ConfirmationClaims, error)
	IssueAuthenticationToken(userID int64, role models.Role) (string, error)
}

// AccountService orchestrates user accounts.
type AccountService struct {
	store    storage.Store
	hasher   auth.PasswordHasher
	tokens   Tokens
	consumed storage.ConsumedTokenStore
	inTx     bool
	cost     int
	log      logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

// AccountOption customises an AccountService.
type AccountOption func(*AccountService)

// WithConsumedTokens makes confirmation tokens single-use, recording them in
// c outside the confirmation transaction.
func WithConsumedTokens(c storage.ConsumedTokenStore) AccountOption {
	return func(s *AccountService) { s.consumed, s.inTx = c, false }
}

// WithTxConsumedTokens makes confirmation tokens single-use, recording them
// through the confirmation transaction so that a failed confirmation leaves
// the token redeemable.
func WithTxConsumedTokens() AccountOption {
	return func(s *AccountService) { s.consumed, s.inTx = nil, true }
}

// WithPasswordCost sets the hashing cost for new passwords.
func WithPasswordCost(cost int) AccountOption {
	return func(s *AccountService) { s.cost = cost }
}

// WithLogger sets the service logger.
func WithLogger(l logging.Logger) AccountOption {
	return func(s *AccountService) { s.log = l }
}

// NewAccountService wires the service.
func NewAccountService(store storage.Store, hasher auth.PasswordHasher, tokens Tokens, opts ...AccountOption) *AccountService {
	s := &AccountService{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		cost:   auth.DefaultPasswordCost,
		log:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount registers a user and returns a confirmation token for it.
func (s *AccountService) CreateAccount(
	ctx context.Context,
	req dto.CreateUserRequest,
	v validation.Validator[dto.CreateUserRequest],
) (result.Result[string], error) {
	req.Email = normalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	if failure, err := validate(v, req); failure != nil || err != nil {
		return result.Failure[string](failure), err
	}

	exists, err := s.store.Users().EmailExists(ctx, req.Email)
	if err != nil {
		return result.Result[string]{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return result.Failure[string](emailAlreadyExists()), nil
	}

	hash, err := s.hasher.Hash(req.Password, s.cost)
	if err != nil {
		return result.Result[string]{}, fmt.Errorf("hash password: %w", err)
	}

	return s.insertAndIssue(ctx, models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		Role:         models.RoleStandard,
	})
}

// insertAndIssue stores the user and issues its confirmation token inside a
// single transaction. Anything short of a successful commit is rolled back
// before returning; panics are re-raised after the rollback.
func (s *AccountService) insertAndIssue(ctx context.Context, user models.User) (result.Result[string], error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return result.Result[string]{}, fmt.Errorf("%w: %w", ErrAccountCreation, err)
	}

	committed := false
	defer s.rollbackUnlessCommitted(ctx, tx, &committed, "account creation")

	created, err := tx.Users().Insert(ctx, user)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return result.Failure[string](emailAlreadyExists()), nil
	}
	if err != nil {
		return result.Result[string]{}, fmt.Errorf("%w: insert user: %w", ErrAccountCreation, err)
	}
	if _, err := tx.SaveChanges(ctx); err != nil {
		return result.Result[string]{}, fmt.Errorf("%w: save changes: %w", ErrAccountCreation, err)
	}

	token, err := s.tokens.IssueConfirmationToken(created.ID, created.Email)
	if err != nil {
		return result.Result[string]{}, fmt.Errorf("%w: issue confirmation token: %w", ErrAccountCreation, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return result.Result[string]{}, fmt.Errorf("%w: commit: %w", ErrAccountCreation, err)
	}
	committed = true

	s.log.Info(ctx, "account created", "user_id", created.ID)
	return result.Success(token), nil
}

// ConfirmAccount redeems a confirmation token and returns an authentication
// token for the confirmed user. Consumption and the confirmed flag are
// written in one transaction.
func (s *AccountService) ConfirmAccount(ctx context.Context, token string) (result.Result[string], error) {
	validated := s.tokens.ValidateConfirmationToken(token)
	if !validated.IsSuccess() {
		return result.FailureFrom[string](validated), nil
	}

	claims, err := s.tokens.ExtractClaims(validated.Value())
	if err != nil {
		return result.Result[string]{}, fmt.Errorf("%w: %w", ErrConfirmation, err)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return result.Result[string]{}, fmt.Errorf("%w: %w", ErrConfirmation, err)
	}
	committed := false
	defer s.rollbackUnlessCommitted(ctx, tx, &committed, "account confirmation")

	consumed := s.consumed
	if s.inTx {
		consumed = tx.ConsumedTokens()
	}
	if consumed != nil {
		first, err := consumed.Consume(ctx, token, validated.Value().ExpiresAt())
		if err != nil {
			return result.Result[string]{}, fmt.Errorf("%w: consume token: %w", ErrConfirmation, err)
		}
		if !first {
			s.log.Warn(ctx, "confirmation token reused", "user_id", claims.UserID)
			return result.Failure[string](auth.UnauthorizedError()), nil
		}
	}

	user, err := tx.Users().MarkConfirmed(ctx, claims.UserID)
	if err != nil {
		return result.Result[string]{}, fmt.Errorf("%w: user %d: %w", ErrConfirmation, claims.UserID, err)
	}

	authToken, err := s.tokens.IssueAuthenticationToken(user.ID, user.Role)
	if err != nil {
		return result.Result[string]{}, fmt.Errorf("%w: issue authentication token: %w", ErrConfirmation, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return result.Result[string]{}, fmt.Errorf("%w: commit: %w", ErrConfirmation, err)
	}
	committed = true

	s.log.Info(ctx, "account confirmed", "user_id", user.ID)
	return result.Success(authToken), nil
}

// rollbackUnlessCommitted is deferred after Begin. A panic is re-raised once
// the transaction has been rolled back.
func (s *AccountService) rollbackUnlessCommitted(ctx context.Context, tx storage.Tx, committed *bool, op string) {
	if *committed {
		return
	}
	p := recover()
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, storage.ErrTxDone) {
		s.log.Error(ctx, "rollback "+op, "error", err)
	}
	if p != nil {
		panic(p)
	}
}

// GenerateConfirmationToken issues a fresh confirmation token for valid
// credentials.
func (s *AccountService) GenerateConfirmationToken(
	ctx context.Context,
	req dto.EmailAndPasswordRequest,
	v validation.Validator[dto.EmailAndPasswordRequest],
) (result.Result[string], error) {
	user, res, err := s.authenticate(ctx, req, v)
	if err != nil || !res.IsSuccess() {
		return res, err
	}

	token, err := s.tokens.IssueConfirmationToken(user.ID, user.Email)
	if err != nil {
		return result.Result[string]{}, fmt.Errorf("issue confirmation token: %w", err)
	}
	return result.Success(token), nil
}

// Login issues an authentication token for valid credentials.
func (s *AccountService) Login(
	ctx context.Context,
	req dto.EmailAndPasswordRequest,
	v validation.Validator[dto.EmailAndPasswordRequest],
) (result.Result[string], error) {
	user, res, err := s.authenticate(ctx, req, v)
	if err != nil || !res.IsSuccess() {
		return res, err
	}

	token, err := s.tokens.IssueAuthenticationToken(user.ID, user.Role)
	if err != nil {
		return result.Result[string]{}, fmt.Errorf("issue authentication token: %w", err)
	}
	return result.Success(token), nil
}

// Profile returns the public view of a user. An unknown id is treated as an
// unauthorized caller.
func (s *AccountService) Profile(ctx context.Context, userID int64) (result.Result[dto.ProfileResponse], error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return result.Failure[dto.ProfileResponse](auth.UnauthorizedError()), nil
	}
	if err != nil {
		return result.Result[dto.ProfileResponse]{}, fmt.Errorf("find user %d: %w", userID, err)
	}
	return result.Success(dto.ProfileResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Role:      user.Role,
		Confirmed: user.Confirmed,
	}), nil
}

// authenticate checks credentials. Unknown emails and wrong passwords yield
// the same failure, and both pay for a bcrypt comparison.
func (s *AccountService) authenticate(
	ctx context.Context,
	req dto.EmailAndPasswordRequest,
	v validation.Validator[dto.EmailAndPasswordRequest],
) (models.User, result.Result[string], error) {
	req.Email = normalizeEmail(req.Email)

	if failure, err := validate(v, req); failure != nil || err != nil {
		return models.User{}, result.Failure[string](failure), err
	}

	user, err := s.store.Users().FindByEmail(ctx, req.Email)
	if errors.Is(err, storage.ErrNotFound) {
		s.hasher.Verify(req.Password, s.dummy())
		return models.User{}, result.Failure[string](invalidCredentials()), nil
	}
	if err != nil {
		return models.User{}, result.Result[string]{}, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return models.User{}, result.Failure[string](invalidCredentials()), nil
	}
	return user, result.Success(""), nil
}

func (s *AccountService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("not-a-real-password", s.cost)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

// validate runs v and converts a rejection into an input validation failure.
// Both returns are nil when the value is valid.
func validate[T any](v validation.Validator[T], value T) (*result.Error, error) {
	if v == nil {
		return nil, nil
	}
	msgs, err := validation.Messages(v.Validate(value))
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return result.NewError(result.CodeInvalidInput, result.TypeInputValidationError, msgs...), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailAlreadyExists() *result.Error {
	return result.NewError(result.CodeEmailAlreadyExists, result.TypeBusinessLogicValidationError, result.Message{
		Message: "This email is already in use.",
		Action:  "Try another email.",
	})
}

func invalidCredentials() *result.Error {
	return result.NewError(result.CodeInvalidInput, result.TypeBusinessLogicValidationError, result.Message{
		Message: "Invalid Email or Password.",
		Action:  "Post valid credentials.",
	})
}
