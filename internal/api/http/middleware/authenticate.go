package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	apiErrors "github.com/dtroode/vkn-server/internal/api/errors"
	"github.com/dtroode/vkn-server/internal/logger"
	"github.com/dtroode/vkn-server/internal/model"
)

// AccessTokenHeader is the header the web client sends its access token in.
const AccessTokenHeader = "access-token"

// TokenService resolves the session carried by an access token.
type TokenService interface {
	GetSession(ctx context.Context, token string) (model.SessionClaims, error)
}

// Authenticate validates access tokens and injects the session into the request context.
type Authenticate struct {
	tokenService   TokenService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(tokenService TokenService, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokenService: tokenService, contextManager: contextManager, logger: logger}
}

func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.authenticate(r.Context(), accessToken(r))
		if err != nil {
			m.logger.Debug("Authenticate middleware: request rejected",
				"path", r.URL.Path,
				"reason", err.Error())
			apiErrors.WriteError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(m.contextManager.SetSessionToContext(r.Context(), session)))
	})
}

func accessToken(r *http.Request) string {
	if token := r.Header.Get(AccessTokenHeader); token != "" {
		return token
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func (m *Authenticate) authenticate(ctx context.Context, token string) (model.SessionClaims, error) {
	if token == "" {
		return model.SessionClaims{}, apiErrors.NewErrMissingAuthorizationToken()
	}

	session, err := m.tokenService.GetSession(ctx, token)
	if err != nil {
		return model.SessionClaims{}, apiErrors.NewErrInvalidAuthorizationToken()
	}
	if session.UserID == uuid.Nil {
		return model.SessionClaims{}, apiErrors.NewErrInvalidAuthorizationToken()
	}

	return session, nil
}
