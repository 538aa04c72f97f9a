package postgres

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dtroode/vkn-server/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

// RefreshTokenRepository keys refresh tokens by the SHA-256 of their value.
type RefreshTokenRepository struct {
	db querier
}

func NewRefreshTokenRepository(db *Connection) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token model.RefreshToken) error {
	const query = `
        INSERT INTO refresh_tokens (token_hash, user_id, is_admin, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `

	_, err := r.db.Exec(ctx, query,
		hashRefresh(token.Value), token.Payload.UserID, token.Payload.IsAdmin, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", classify(err))
	}
	return nil
}

func (r *RefreshTokenRepository) GetByValue(ctx context.Context, value string) (model.RefreshToken, error) {
	const query = `
        SELECT user_id, is_admin, expires_at, created_at
        FROM refresh_tokens WHERE token_hash = $1
    `

	rt := model.RefreshToken{Value: value}
	err := r.db.QueryRow(ctx, query, hashRefresh(value)).Scan(
		&rt.Payload.UserID, &rt.Payload.IsAdmin, &rt.ExpiresAt, &rt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RefreshToken{}, model.ErrNotFound
		}
		return model.RefreshToken{}, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return rt, nil
}

func (r *RefreshTokenRepository) Delete(ctx context.Context, value string) error {
	const query = `DELETE FROM refresh_tokens WHERE token_hash = $1`

	if _, err := r.db.Exec(ctx, query, hashRefresh(value)); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

func hashRefresh(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}
