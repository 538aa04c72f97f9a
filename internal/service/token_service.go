package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apiErrors "github.com/dtroode/vkn-server/internal/api/errors"
	"github.com/dtroode/vkn-server/internal/logger"
	"github.com/dtroode/vkn-server/internal/model"
)

// TokenService provides high-level operations for issuing and refreshing
// session tokens. It composes the TokenManager and RefreshTokenStore.
type TokenService struct {
	manager model.TokenManager
	store   model.RefreshTokenStore
	logger  *logger.Logger
}

func NewTokenService(manager model.TokenManager, store model.RefreshTokenStore, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, store: store, logger: logger}
}

// Issue signs an access and a refresh token for the session and persists the refresh token.
func (s *TokenService) Issue(ctx context.Context, session model.SessionClaims) (accessToken string, refreshToken string, err error) {
	access, err := s.manager.GenerateAccessToken(session)
	if err != nil {
		return "", "", fmt.Errorf("issue access: %w", err)
	}

	refresh, expiresAt, err := s.manager.GenerateRefreshToken(session)
	if err != nil {
		return "", "", fmt.Errorf("issue refresh: %w", err)
	}

	rt := model.RefreshToken{
		Value:     refresh,
		Payload:   session,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	if err := s.store.Create(ctx, rt); err != nil {
		return "", "", fmt.Errorf("persist refresh: %w", err)
	}

	return access, refresh, nil
}

// Refresh issues a new access token for a stored refresh token.
// A stored token that fails verification is deleted before the rejection is returned.
func (s *TokenService) Refresh(ctx context.Context, presentedRefresh string) (string, error) {
	rt, err := s.store.GetByValue(ctx, presentedRefresh)
	if errors.Is(err, model.ErrNotFound) {
		return "", apiErrors.NewErrRefreshTokenNotFound()
	}
	if err != nil {
		return "", fmt.Errorf("failed to get refresh token: %w", err)
	}

	if _, err := s.manager.ParseRefreshToken(presentedRefresh); err != nil {
		s.logger.Info("Token service: rejecting refresh token",
			"user_id", rt.Payload.UserID,
			"reason", err.Error())

		if delErr := s.store.Delete(ctx, presentedRefresh); delErr != nil {
			return "", fmt.Errorf("failed to delete refresh token: %w", delErr)
		}
		if errors.Is(err, model.ErrTokenExpired) {
			return "", apiErrors.NewErrRefreshTokenExpired()
		}
		return "", apiErrors.NewErrRefreshTokenInvalid()
	}

	access, err := s.manager.GenerateAccessToken(rt.Payload)
	if err != nil {
		return "", fmt.Errorf("issue new access: %w", err)
	}

	return access, nil
}

// GetSession resolves the session carried by an access token.
func (s *TokenService) GetSession(_ context.Context, token string) (model.SessionClaims, error) {
	return s.manager.ParseAccessToken(token)
}
