package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hongminglow/express-accounts/internal/mail"
	"github.com/hongminglow/express-accounts/internal/models"
	"github.com/hongminglow/express-accounts/internal/storage"
)

type storeCalls struct {
	emailExists, findByEmail, findByID, insert, markConfirmed int
	begin, saveChanges, commit, rollback                       int
}

// fakeStore is an in-memory storage.Store. Writes made through a Tx are only
// published on Commit.
type fakeStore struct {
	mu       sync.Mutex
	users    map[int64]models.User
	consumed map[string]bool
	nextID   int64
	calls    storeCalls

	existsErr error
	findErr   error
	insertErr error
	beginErr  error
	commitErr error
	markErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[int64]models.User{}, consumed: map[string]bool{}, nextID: 1}
}

func (s *fakeStore) seed(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.nextID
	s.nextID++
	u.Role = u.Role.OrDefault()
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) byEmail(email string) (models.User, bool) {
	for _, u := range s.users {
		if u.Email == email {
			return u, true
		}
	}
	return models.User{}, false
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *fakeStore) Users() storage.UserRepository { return &fakeUsers{s: s} }

func (s *fakeStore) Begin(context.Context) (storage.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.begin++
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	tx := &fakeTx{s: s}
	tx.users = &fakeUsers{s: s, tx: tx}
	return tx, nil
}

type fakeTx struct {
	s        *fakeStore
	users    *fakeUsers
	staged   []models.User
	consumed []string
	pending  int64
	done     bool
}

func (t *fakeTx) Users() storage.UserRepository { return t.users }

func (t *fakeTx) ConsumedTokens() storage.ConsumedTokenStore { return fakeTxConsumed{tx: t} }

// fakeTxConsumed stages consumed tokens on its transaction.
type fakeTxConsumed struct{ tx *fakeTx }

func (c fakeTxConsumed) Consume(_ context.Context, token string, _ time.Time) (bool, error) {
	c.tx.s.mu.Lock()
	defer c.tx.s.mu.Unlock()
	if c.tx.s.consumed[token] {
		return false, nil
	}
	for _, staged := range c.tx.consumed {
		if staged == token {
			return false, nil
		}
	}
	c.tx.consumed = append(c.tx.consumed, token)
	return true, nil
}

func (t *fakeTx) SaveChanges(context.Context) (int64, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.calls.saveChanges++
	n := t.pending
	t.pending = 0
	return n, nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.calls.commit++
	if t.done {
		return storage.ErrTxDone
	}
	if t.s.commitErr != nil {
		return t.s.commitErr
	}
	for _, u := range t.staged {
		t.s.users[u.ID] = u
	}
	for _, token := range t.consumed {
		t.s.consumed[token] = true
	}
	t.done = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.calls.rollback++
	if t.done {
		return storage.ErrTxDone
	}
	t.staged = nil
	t.consumed = nil
	t.done = true
	return nil
}

type fakeUsers struct {
	s  *fakeStore
	tx *fakeTx
}

func (r *fakeUsers) EmailExists(_ context.Context, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.calls.emailExists++
	if r.s.existsErr != nil {
		return false, r.s.existsErr
	}
	_, ok := r.s.byEmail(email)
	return ok, nil
}

func (r *fakeUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.calls.findByEmail++
	if r.s.findErr != nil {
		return models.User{}, r.s.findErr
	}
	u, ok := r.s.byEmail(email)
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (r *fakeUsers) FindByID(_ context.Context, id int64) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.calls.findByID++
	if r.s.findErr != nil {
		return models.User{}, r.s.findErr
	}
	u, ok := r.s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (r *fakeUsers) Insert(_ context.Context, u models.User) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.calls.insert++
	if r.s.insertErr != nil {
		return models.User{}, r.s.insertErr
	}
	if _, ok := r.s.byEmail(u.Email); ok {
		return models.User{}, storage.ErrAlreadyExists
	}
	u.ID = r.s.nextID
	r.s.nextID++
	u.Role = u.Role.OrDefault()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	if r.tx != nil {
		r.tx.staged = append(r.tx.staged, u)
		r.tx.pending++
	} else {
		r.s.users[u.ID] = u
	}
	return u, nil
}

func (r *fakeUsers) MarkConfirmed(_ context.Context, id int64) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.calls.markConfirmed++
	if r.s.markErr != nil {
		return models.User{}, r.s.markErr
	}
	u, ok := r.s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	u.Confirmed = true
	if r.tx != nil {
		r.tx.staged = append(r.tx.staged, u)
		r.tx.pending++
	} else {
		r.s.users[id] = u
	}
	return u, nil
}

// fakeHasher avoids bcrypt's cost in tests that don't exercise hashing.
type fakeHasher struct {
	hashErr error
	verifies int
}

func (h *fakeHasher) Hash(password string, _ int) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + password, nil
}

func (h *fakeHasher) Verify(password, hash string) bool {
	h.verifies++
	return hash == "hashed:"+password
}

type fakeConsumed struct {
	mu   sync.Mutex
	seen map[string]time.Time
	err  error
}

func newFakeConsumed() *fakeConsumed { return &fakeConsumed{seen: map[string]time.Time{}} }

func (c *fakeConsumed) Consume(_ context.Context, token string, expiresAt time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	if _, ok := c.seen[token]; ok {
		return false, nil
	}
	c.seen[token] = expiresAt
	return true, nil
}

type fakeSender struct {
	sent []mail.Message
	err  error
}

func (s *fakeSender) Send(_ context.Context, msg mail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

var errDB = errors.New("db unavailable")
