package model

import "context"

// EmailKind selects the template of an outgoing email.
type EmailKind string

const (
	EmailVerify        EmailKind = "verify-email"
	EmailResetPassword EmailKind = "reset-password"
)

// Email is a request to send a token-carrying message to an account.
type Email struct {
	Kind     EmailKind
	To       string
	Username string
	Token    string
}

// Notifier delivers emails. Notify must not block on delivery and never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, email Email)
}
