package memory

import (
	"context"

	"github.com/dtroode/vkn-server/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

type RefreshTokenRepository struct {
	store *Store
}

func (r *RefreshTokenRepository) Create(_ context.Context, token model.RefreshToken) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.tokens[token.Value]; exists {
		return model.ErrTxConflict
	}
	r.store.tokens[token.Value] = token
	return nil
}

func (r *RefreshTokenRepository) GetByValue(_ context.Context, value string) (model.RefreshToken, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rt, ok := r.store.tokens[value]
	if !ok {
		return model.RefreshToken{}, model.ErrNotFound
	}
	return rt, nil
}

func (r *RefreshTokenRepository) Delete(_ context.Context, value string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.tokens, value)
	return nil
}
