package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/dtroode/vkn-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

// UserRepository reads through pending transaction writes before committed state.
// A nil pending map means the repository is not bound to a transaction.
type UserRepository struct {
	store   *Store
	pending map[uuid.UUID]model.User
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (model.User, error) {
	return r.find(func(u model.User) bool { return u.Username == username })
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (model.User, error) {
	return r.find(func(u model.User) bool { return u.Email == email })
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	return r.find(func(u model.User) bool { return u.ID == id })
}

func (r *UserRepository) Create(_ context.Context, user model.User) (model.User, error) {
	return r.put(user, false)
}

func (r *UserRepository) Update(_ context.Context, user model.User) (model.User, error) {
	return r.put(user, true)
}

func (r *UserRepository) find(match func(model.User) bool) (model.User, error) {
	for _, u := range r.pending {
		if match(u) {
			return cloneUser(u), nil
		}
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for id, u := range r.store.users {
		if _, shadowed := r.pending[id]; shadowed {
			continue
		}
		if match(u) {
			return cloneUser(u), nil
		}
	}

	return model.User{}, model.ErrNotFound
}

func (r *UserRepository) put(user model.User, mustExist bool) (model.User, error) {
	user = cloneUser(user)

	if r.pending == nil {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()

		_, exists := r.store.users[user.ID]
		if err := checkPut(exists, mustExist, r.store.conflictsLocked(user)); err != nil {
			return model.User{}, err
		}
		r.store.users[user.ID] = user
		return cloneUser(user), nil
	}

	_, exists := r.pending[user.ID]
	conflict := false
	for id, u := range r.pending {
		if id != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			conflict = true
		}
	}

	r.store.mu.RLock()
	_, committed := r.store.users[user.ID]
	conflict = conflict || r.store.conflictsLocked(user)
	r.store.mu.RUnlock()

	if err := checkPut(exists || committed, mustExist, conflict); err != nil {
		return model.User{}, err
	}
	r.pending[user.ID] = user

	return cloneUser(user), nil
}

func checkPut(exists, mustExist, conflict bool) error {
	switch {
	case mustExist && !exists:
		return model.ErrNotFound
	case !mustExist && exists:
		return model.ErrTxConflict
	case conflict:
		return model.ErrTxConflict
	}
	return nil
}
