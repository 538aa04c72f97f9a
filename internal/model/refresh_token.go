package model

import (
	"context"
	"time"
)

type RefreshTokenStore interface {
	Create(ctx context.Context, token RefreshToken) error
	GetByValue(ctx context.Context, value string) (RefreshToken, error)
	Delete(ctx context.Context, value string) error
}

type RefreshToken struct {
	Value     string
	Payload   SessionClaims
	ExpiresAt time.Time
	CreatedAt time.Time
}
