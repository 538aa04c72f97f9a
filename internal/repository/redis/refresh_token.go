// Package redis keeps refresh tokens in Redis with a TTL following token expiry.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dtroode/vkn-server/internal/model"
)

// expiryGrace keeps expired tokens readable for a while so a late refresh
// is reported as expired rather than unknown.
const expiryGrace = 24 * time.Hour

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

type RefreshTokenRepository struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

type storedToken struct {
	UserID    uuid.UUID `json:"userId"`
	IsAdmin   bool      `json:"isAdmin"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewRefreshTokenRepository(client redis.Cmdable, prefix string) *RefreshTokenRepository {
	return &RefreshTokenRepository{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// Connect dials addr and checks the server is reachable.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (r *RefreshTokenRepository) key(value string) string {
	sum := sha256.Sum256([]byte(value))
	return r.prefix + hex.EncodeToString(sum[:])
}

func (r *RefreshTokenRepository) ttl(expiresAt time.Time) time.Duration {
	ttl := expiresAt.Sub(r.now()) + expiryGrace
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token model.RefreshToken) error {
	payload, err := json.Marshal(storedToken{
		UserID:    token.Payload.UserID,
		IsAdmin:   token.Payload.IsAdmin,
		ExpiresAt: token.ExpiresAt,
		CreatedAt: token.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode refresh token: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.key(token.Value), payload, r.ttl(token.ExpiresAt)).Result()
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	if !ok {
		return model.ErrTxConflict
	}
	return nil
}

func (r *RefreshTokenRepository) GetByValue(ctx context.Context, value string) (model.RefreshToken, error) {
	raw, err := r.client.Get(ctx, r.key(value)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.RefreshToken{}, model.ErrNotFound
	}
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("failed to get refresh token: %w", err)
	}

	var st storedToken
	if err := json.Unmarshal(raw, &st); err != nil {
		return model.RefreshToken{}, fmt.Errorf("failed to decode refresh token: %w", err)
	}

	return model.RefreshToken{
		Value:     value,
		Payload:   model.SessionClaims{UserID: st.UserID, IsAdmin: st.IsAdmin},
		ExpiresAt: st.ExpiresAt,
		CreatedAt: st.CreatedAt,
	}, nil
}

func (r *RefreshTokenRepository) Delete(ctx context.Context, value string) error {
	if err := r.client.Del(ctx, r.key(value)).Err(); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}
