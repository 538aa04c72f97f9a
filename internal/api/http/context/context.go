package context

import (
	"context"

	"github.com/dtroode/vkn-server/internal/model"
)

type ctxKey int

const (
	sessionKey ctxKey = iota
	requestIDKey
)

// Manager stores request-scoped values on a context.
type Manager struct{}

// NewManager creates a new context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetSessionToContext returns a copy of ctx carrying the authenticated session.
func (m *Manager) SetSessionToContext(ctx context.Context, session model.SessionClaims) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// GetSessionFromContext returns the session set by SetSessionToContext.
func (m *Manager) GetSessionFromContext(ctx context.Context) (model.SessionClaims, bool) {
	session, ok := ctx.Value(sessionKey).(model.SessionClaims)
	return session, ok
}

func (m *Manager) SetRequestIDToContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func (m *Manager) GetRequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}
