package model

import "context"

type ContextManager interface {
	SetSessionToContext(ctx context.Context, session SessionClaims) context.Context
	GetSessionFromContext(ctx context.Context) (SessionClaims, bool)
}
