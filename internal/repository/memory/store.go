// Package memory provides thread-safe in-memory stores suitable for tests and local development.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dtroode/vkn-server/internal/model"
)

var _ model.Transactor = (*Store)(nil)

// Store holds users and refresh tokens. Transactions are serialized and their writes
// are buffered until commit.
type Store struct {
	txMu sync.Mutex

	mu     sync.RWMutex
	users  map[uuid.UUID]model.User
	tokens map[string]model.RefreshToken
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:  make(map[uuid.UUID]model.User),
		tokens: make(map[string]model.RefreshToken),
	}
}

// Users returns a UserStore operating outside of transactions.
func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

// RefreshTokens returns the refresh token store.
func (s *Store) RefreshTokens() *RefreshTokenRepository {
	return &RefreshTokenRepository{store: s}
}

// InTx runs fn with a UserStore whose writes become visible to others only if fn succeeds.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, users model.UserStore) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &UserRepository{store: s, pending: make(map[uuid.UUID]model.User)}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	return s.commit(tx.pending)
}

func (s *Store) commit(pending map[uuid.UUID]model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range pending {
		if s.conflictsLocked(u) {
			return model.ErrTxConflict
		}
	}
	for id, u := range pending {
		s.users[id] = u
	}

	return nil
}

// conflictsLocked reports whether another committed user holds the username or email of user.
func (s *Store) conflictsLocked(user model.User) bool {
	for id, u := range s.users {
		if id != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			return true
		}
	}
	return false
}

func cloneUser(u model.User) model.User {
	if u.Auth.RemainingTime != nil {
		t := *u.Auth.RemainingTime
		u.Auth.RemainingTime = &t
	}
	return u
}
