package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apiErrors "github.com/dtroode/vkn-server/internal/api/errors"
	"github.com/dtroode/vkn-server/internal/logger"
	servermocks "github.com/dtroode/vkn-server/internal/mocks"
	"github.com/dtroode/vkn-server/internal/model"
)

func TestTokenService_Issue(t *testing.T) {
	ctx := context.Background()
	session := model.SessionClaims{UserID: uuid.New(), IsAdmin: true}
	expiresAt := time.Now().Add(time.Hour)

	manager := &servermocks.TokenManager{}
	store := &servermocks.RefreshTokenStore{}

	manager.On("GenerateAccessToken", session).Return("access", nil).Once()
	manager.On("GenerateRefreshToken", session).Return("refresh", expiresAt, nil).Once()
	store.On("Create", ctx, mock.MatchedBy(func(rt model.RefreshToken) bool {
		return rt.Value == "refresh" && rt.Payload == session && rt.ExpiresAt.Equal(expiresAt)
	})).Return(nil).Once()

	svc := NewTokenService(manager, store, logger.New(0))

	access, refresh, err := svc.Issue(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, "access", access)
	assert.Equal(t, "refresh", refresh)
	store.AssertExpectations(t)
}

func TestTokenService_Issue_ManagerError(t *testing.T) {
	ctx := context.Background()
	session := model.SessionClaims{UserID: uuid.New()}

	manager := &servermocks.TokenManager{}
	store := &servermocks.RefreshTokenStore{}

	manager.On("GenerateAccessToken", session).Return("", assert.AnError).Once()

	svc := NewTokenService(manager, store, logger.New(0))

	_, _, err := svc.Issue(ctx, session)
	require.Error(t, err)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTokenService_Issue_StoreError(t *testing.T) {
	ctx := context.Background()
	session := model.SessionClaims{UserID: uuid.New()}

	manager := servermocks.NewTokenManager(t)
	store := servermocks.NewRefreshTokenStore(t)

	manager.On("GenerateAccessToken", session).Return("access", nil).Once()
	manager.On("GenerateRefreshToken", session).Return("refresh", time.Now(), nil).Once()
	store.On("Create", ctx, mock.Anything).Return(assert.AnError).Once()

	svc := NewTokenService(manager, store, logger.New(0))

	_, _, err := svc.Issue(ctx, session)
	require.ErrorIs(t, err, assert.AnError)
}

func TestTokenService_Refresh(t *testing.T) {
	session := model.SessionClaims{UserID: uuid.New()}
	stored := model.RefreshToken{Value: "refresh", Payload: session}

	tests := []struct {
		name       string
		getErr     error
		parseErr   error
		wantAccess string
		wantErr    *apiErrors.APIError
		wantDelete bool
	}{
		{
			name:       "valid token",
			wantAccess: "access",
		},
		{
			name:    "not stored",
			getErr:  model.ErrNotFound,
			wantErr: apiErrors.NewErrRefreshTokenNotFound(),
		},
		{
			name:       "expired",
			parseErr:   fmt.Errorf("%w: token is expired", model.ErrTokenExpired),
			wantErr:    apiErrors.NewErrRefreshTokenExpired(),
			wantDelete: true,
		},
		{
			name:       "bad signature",
			parseErr:   fmt.Errorf("%w: signature is invalid", model.ErrTokenInvalid),
			wantErr:    apiErrors.NewErrRefreshTokenInvalid(),
			wantDelete: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			manager := servermocks.NewTokenManager(t)
			store := servermocks.NewRefreshTokenStore(t)

			if tt.getErr != nil {
				store.On("GetByValue", ctx, "refresh").Return(model.RefreshToken{}, tt.getErr).Once()
			} else {
				store.On("GetByValue", ctx, "refresh").Return(stored, nil).Once()
				manager.On("ParseRefreshToken", "refresh").Return(session, tt.parseErr).Once()
			}
			if tt.wantDelete {
				store.On("Delete", ctx, "refresh").Return(nil).Once()
			}
			if tt.wantAccess != "" {
				manager.On("GenerateAccessToken", session).Return(tt.wantAccess, nil).Once()
			}

			svc := NewTokenService(manager, store, logger.New(0))
			access, err := svc.Refresh(ctx, "refresh")

			if tt.wantErr != nil {
				apiErr, ok := apiErrors.As(err)
				require.True(t, ok)
				assert.Equal(t, tt.wantErr.Message, apiErr.Message)
				assert.Equal(t, tt.wantErr.HTTPStatus, apiErr.HTTPStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAccess, access)
		})
	}
}

func TestTokenService_Refresh_DeleteFailure(t *testing.T) {
	ctx := context.Background()
	manager := servermocks.NewTokenManager(t)
	store := servermocks.NewRefreshTokenStore(t)

	store.On("GetByValue", ctx, "refresh").Return(model.RefreshToken{Value: "refresh"}, nil).Once()
	manager.On("ParseRefreshToken", "refresh").Return(model.SessionClaims{}, model.ErrTokenInvalid).Once()
	store.On("Delete", ctx, "refresh").Return(assert.AnError).Once()

	_, err := NewTokenService(manager, store, logger.New(0)).Refresh(ctx, "refresh")
	require.ErrorIs(t, err, assert.AnError)
	_, isAPIErr := apiErrors.As(err)
	assert.False(t, isAPIErr)
}

func TestTokenService_GetSession(t *testing.T) {
	session := model.SessionClaims{UserID: uuid.New()}
	manager := servermocks.NewTokenManager(t)
	manager.On("ParseAccessToken", "access").Return(session, nil).Once()

	got, err := NewTokenService(manager, servermocks.NewRefreshTokenStore(t), logger.New(0)).GetSession(context.Background(), "access")
	require.NoError(t, err)
	assert.Equal(t, session, got)
}
