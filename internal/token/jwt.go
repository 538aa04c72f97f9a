package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/vkn-server/internal/model"
)

const (
	subjectAccess  = "access"
	subjectRefresh = "refresh"
)

// AccountClaims represents claims of verify-email and reset-password tokens.
type AccountClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
}

// SessionClaims represents claims of access and refresh tokens.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID  uuid.UUID `json:"userId"`
	IsAdmin bool      `json:"isAdmin"`
}

// Options configures secrets and lifetimes of issued tokens.
type Options struct {
	Secret           string
	RefreshSecret    string
	VerifyEmailTTL   time.Duration
	ResetPasswordTTL time.Duration
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
}

var _ model.TokenManager = (*JWT)(nil)

// JWT implements TokenManager backed by symmetric HMAC.
// Refresh tokens are signed with their own secret; every other token uses the primary one.
type JWT struct {
	opts Options
	now  func() time.Time
}

// NewJWT creates a new JWT token manager.
func NewJWT(opts Options) *JWT {
	return &JWT{opts: opts, now: time.Now}
}

// GenerateActionToken signs account claims bound to subject.
func (j *JWT) GenerateActionToken(subject model.TokenSubject, claims model.AccountClaims) (string, error) {
	ttl, err := j.actionTTL(subject)
	if err != nil {
		return "", err
	}

	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccountClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(subject),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: claims.Username,
		Email:    claims.Email,
	})

	tokenString, err := token.SignedString([]byte(j.opts.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", subject, err)
	}

	return tokenString, nil
}

// ParseActionToken verifies a token issued for subject and returns its account claims.
func (j *JWT) ParseActionToken(tokenString string, subject model.TokenSubject) (model.AccountClaims, error) {
	claims := &AccountClaims{}
	if err := j.parse(tokenString, claims, string(subject), j.opts.Secret); err != nil {
		return model.AccountClaims{}, err
	}
	if claims.Username == "" {
		return model.AccountClaims{}, fmt.Errorf("%w: username claim is empty", model.ErrTokenInvalid)
	}

	return model.AccountClaims{Username: claims.Username, Email: claims.Email}, nil
}

// GenerateAccessToken creates a short-lived access token.
func (j *JWT) GenerateAccessToken(claims model.SessionClaims) (string, error) {
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectAccess,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.opts.AccessTTL)),
		},
		UserID:  claims.UserID,
		IsAdmin: claims.IsAdmin,
	})

	tokenString, err := token.SignedString([]byte(j.opts.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// GenerateRefreshToken creates a long-lived refresh token and returns its expiry.
func (j *JWT) GenerateRefreshToken(claims model.SessionClaims) (string, time.Time, error) {
	now := j.now()
	expiresAt := now.Add(j.opts.RefreshTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectRefresh,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:  claims.UserID,
		IsAdmin: claims.IsAdmin,
	})

	tokenString, err := token.SignedString([]byte(j.opts.RefreshSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ParseAccessToken validates an access token and returns its session claims.
func (j *JWT) ParseAccessToken(tokenString string) (model.SessionClaims, error) {
	return j.parseSession(tokenString, subjectAccess, j.opts.Secret)
}

// ParseRefreshToken validates a refresh token and returns its session claims.
func (j *JWT) ParseRefreshToken(tokenString string) (model.SessionClaims, error) {
	return j.parseSession(tokenString, subjectRefresh, j.opts.RefreshSecret)
}

func (j *JWT) parseSession(tokenString, subject, secret string) (model.SessionClaims, error) {
	claims := &SessionClaims{}
	if err := j.parse(tokenString, claims, subject, secret); err != nil {
		return model.SessionClaims{}, err
	}
	if claims.UserID == uuid.Nil {
		return model.SessionClaims{}, fmt.Errorf("%w: user id claim is empty", model.ErrTokenInvalid)
	}

	return model.SessionClaims{UserID: claims.UserID, IsAdmin: claims.IsAdmin}, nil
}

func (j *JWT) parse(tokenString string, claims jwt.Claims, subject, secret string) error {
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(subject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: %v", model.ErrTokenExpired, err)
		}
		return fmt.Errorf("%w: %v", model.ErrTokenInvalid, err)
	}

	return nil
}

func (j *JWT) actionTTL(subject model.TokenSubject) (time.Duration, error) {
	switch subject {
	case model.SubjectVerifyEmail:
		return j.opts.VerifyEmailTTL, nil
	case model.SubjectResetPassword:
		return j.opts.ResetPasswordTTL, nil
	default:
		return 0, fmt.Errorf("unknown token subject %q", subject)
	}
}
