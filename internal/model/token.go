package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenSubject discriminates purpose-bound account tokens.
type TokenSubject string

const (
	SubjectVerifyEmail   TokenSubject = "verify-email"
	SubjectResetPassword TokenSubject = "reset-password"
)

// AccountClaims are carried by verify-email and reset-password tokens.
type AccountClaims struct {
	Username string
	Email    string
}

// SessionClaims are carried by access and refresh tokens.
type SessionClaims struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// TokenManager signs and verifies tokens.
// Parse methods return ErrTokenExpired for expired tokens and ErrTokenInvalid for any other failure.
type TokenManager interface {
	GenerateActionToken(subject TokenSubject, claims AccountClaims) (string, error)
	ParseActionToken(token string, subject TokenSubject) (AccountClaims, error)
	GenerateAccessToken(claims SessionClaims) (string, error)
	ParseAccessToken(token string) (SessionClaims, error)
	GenerateRefreshToken(claims SessionClaims) (token string, expiresAt time.Time, err error)
	ParseRefreshToken(token string) (SessionClaims, error)
}
