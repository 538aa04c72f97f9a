package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apiErrors "github.com/dtroode/vkn-server/internal/api/errors"
	apiContext "github.com/dtroode/vkn-server/internal/api/http/context"
	"github.com/dtroode/vkn-server/internal/mocks"
	"github.com/dtroode/vkn-server/internal/model"
	"github.com/dtroode/vkn-server/internal/testutil"
)

func TestAuthenticate_Handle(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	tests := []struct {
		name        string
		headers     map[string]string
		wantToken   string
		session     model.SessionClaims
		tokenErr    error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "missing token",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Access token is missing",
		},
		{
			name:        "invalid token",
			headers:     map[string]string{"Authorization": "Bearer bad"},
			wantToken:   "bad",
			tokenErr:    model.ErrTokenInvalid,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Access token is invalid",
		},
		{
			name:        "nil user id",
			headers:     map[string]string{AccessTokenHeader: "tok"},
			wantToken:   "tok",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Access token is invalid",
		},
		{
			name:       "access-token header",
			headers:    map[string]string{AccessTokenHeader: "tok"},
			wantToken:  "tok",
			session:    model.SessionClaims{UserID: userID},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "bearer header",
			headers:    map[string]string{"Authorization": "Bearer tok"},
			wantToken:  "tok",
			session:    model.SessionClaims{UserID: userID, IsAdmin: true},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "access-token wins over bearer",
			headers:    map[string]string{AccessTokenHeader: "tok", "Authorization": "Bearer other"},
			wantToken:  "tok",
			session:    model.SessionClaims{UserID: userID},
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tokens := mocks.NewTokenService(t)
			if tt.wantToken != "" {
				tokens.On("GetSession", mock.Anything, tt.wantToken).Return(tt.session, tt.tokenErr).Once()
			}
			cm := apiContext.NewManager()

			var got model.SessionClaims
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var ok bool
				got, ok = cm.GetSessionFromContext(r.Context())
				require.True(t, ok)
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodPatch, "/user/edit/email", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			NewAuthenticate(tokens, cm, testutil.MakeNoopLogger()).Handle(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantMessage != "" {
				var body apiErrors.Response
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, tt.wantMessage, body.Message)
				assert.Equal(t, apiErrors.StatusError, body.Status)
				return
			}
			assert.Equal(t, tt.session, got)
		})
	}
}

func TestAuthenticate_UsesContextManager(t *testing.T) {
	t.Parallel()

	session := model.SessionClaims{UserID: uuid.New()}
	tokens := mocks.NewTokenService(t)
	tokens.On("GetSession", mock.Anything, "tok").Return(session, nil).Once()

	cm := mocks.NewContextManager(t)
	cm.On("SetSessionToContext", mock.Anything, session).Return(context.Background()).Once()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(AccessTokenHeader, "tok")
	rec := httptest.NewRecorder()

	called := false
	NewAuthenticate(tokens, cm, testutil.MakeNoopLogger()).
		Handle(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })).
		ServeHTTP(rec, req)

	assert.True(t, called)
}
