package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
// Lookups return ErrNotFound when no user matches; Update returns ErrNotFound when no row was changed.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, user User) (User, error)
}

// User represents a stored account.
type User struct {
	ID        uuid.UUID
	Username  string
	Email     string
	Name      string
	Auth      UserAuth
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserAuth holds the credential and state part of an account.
type UserAuth struct {
	PasswordHash string
	IsVerified   bool
	IsAdmin      bool
	// RemainingTime is set at signup and cleared once the email is verified.
	RemainingTime *time.Time
}
