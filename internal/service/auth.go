package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apiErrors "github.com/dtroode/vkn-server/internal/api/errors"
	"github.com/dtroode/vkn-server/internal/logger"
	"github.com/dtroode/vkn-server/internal/model"
)

type Auth struct {
	users        model.UserStore
	tx           model.Transactor
	hasher       model.PasswordHasher
	tokens       model.TokenManager
	tokenService *TokenService
	notifier     model.Notifier
	retry        RetryPolicy
	logger       *logger.Logger
}

func NewAuth(
	users model.UserStore,
	tx model.Transactor,
	refreshTokenStore model.RefreshTokenStore,
	logger *logger.Logger,
	tokenManager model.TokenManager,
	hasher model.PasswordHasher,
	notifier model.Notifier,
	retry RetryPolicy,
) *Auth {
	return &Auth{
		users:        users,
		tx:           tx,
		hasher:       hasher,
		tokens:       tokenManager,
		tokenService: NewTokenService(tokenManager, refreshTokenStore, logger),
		notifier:     notifier,
		retry:        retry,
		logger:       logger,
	}
}

// Signup creates an unverified account and emails a verification token once it is committed.
func (a *Auth) Signup(ctx context.Context, params model.SignupParams) error {
	if params.Username == "" || params.Email == "" || params.Password == "" || params.Name == "" {
		return apiErrors.NewErrMissingParameters()
	}

	a.logger.Debug("Auth service: starting signup",
		"username", params.Username)

	hash, err := a.hasher.Hash(params.Password)
	if err != nil {
		a.logger.Error("Auth service: failed to hash password",
			"username", params.Username,
			"error", err.Error())
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := WithRetryableTx(ctx, a.tx, a.retry, func(ctx context.Context, users model.UserStore) (model.User, error) {
		_, err := users.GetByUsername(ctx, params.Username)
		if err == nil {
			return model.User{}, apiErrors.NewErrUsernameTaken()
		}
		if !errors.Is(err, model.ErrNotFound) {
			return model.User{}, fmt.Errorf("failed to get user by username: %w", err)
		}

		_, err = users.GetByEmail(ctx, params.Email)
		if err == nil {
			return model.User{}, apiErrors.NewErrEmailTaken()
		}
		if !errors.Is(err, model.ErrNotFound) {
			return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
		}

		now := time.Now()
		return users.Create(ctx, model.User{
			ID:       uuid.New(),
			Username: params.Username,
			Email:    params.Email,
			Name:     params.Name,
			Auth: model.UserAuth{
				PasswordHash:  hash,
				RemainingTime: &now,
			},
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		if _, ok := apiErrors.As(err); ok {
			a.logger.Info("Auth service: signup rejected",
				"username", params.Username,
				"reason", err.Error())
			return err
		}
		a.logger.Error("Auth service: failed to create user",
			"username", params.Username,
			"error", err.Error())
		return fmt.Errorf("failed to create user: %w", err)
	}

	if err := a.sendVerification(ctx, model.AccountClaims{Username: user.Username, Email: user.Email}); err != nil {
		return err
	}

	a.logger.Info("Auth service: user signed up",
		"user_id", user.ID,
		"username", user.Username)

	return nil
}

// RequestVerifyEmail emails a new verification token to an unverified account.
func (a *Auth) RequestVerifyEmail(ctx context.Context, lookup model.AccountLookup) error {
	if lookup.Username == "" && lookup.Email == "" {
		return apiErrors.NewErrMissingParameters()
	}

	user, err := a.findAccount(ctx, lookup)
	if errors.Is(err, model.ErrNotFound) {
		return apiErrors.NewErrAccountNotFound()
	}
	if err != nil {
		return err
	}

	if user.Auth.IsVerified {
		return apiErrors.NewErrAlreadyVerified()
	}

	return a.sendVerification(ctx, model.AccountClaims{Username: user.Username, Email: user.Email})
}

// VerifyEmail marks the account named by a verification token as verified.
func (a *Auth) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return apiErrors.NewErrMissingParameters()
	}

	claims, err := a.tokens.ParseActionToken(token, model.SubjectVerifyEmail)
	if err != nil {
		a.logger.Info("Auth service: verification token rejected",
			"reason", err.Error())
		return apiErrors.NewErrTokenInvalid()
	}

	user, err := a.users.GetByUsername(ctx, claims.Username)
	if errors.Is(err, model.ErrNotFound) {
		return apiErrors.NewErrTokenInvalid()
	}
	if err != nil {
		return fmt.Errorf("failed to get user by username: %w", err)
	}

	if user.Auth.IsVerified {
		return apiErrors.NewErrTokenInvalid()
	}

	return a.applyVerifiedEmail(ctx, user, claims.Email)
}

// RequestEmailChange emails a verification token bound to newEmail to the authenticated account.
func (a *Auth) RequestEmailChange(ctx context.Context, userID uuid.UUID, newEmail string) error {
	if newEmail == "" {
		return apiErrors.NewErrMissingParameters()
	}

	user, err := a.users.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return apiErrors.NewErrAccountNotFound()
	}
	if err != nil {
		return fmt.Errorf("failed to get user by id: %w", err)
	}

	_, err = a.users.GetByEmail(ctx, newEmail)
	if err == nil {
		return apiErrors.NewErrEmailTaken()
	}
	if !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	a.logger.Info("Auth service: email change requested",
		"user_id", user.ID)

	return a.sendVerification(ctx, model.AccountClaims{Username: user.Username, Email: newEmail})
}

// ConfirmEmailChange applies the email carried by a verification token to the authenticated account.
func (a *Auth) ConfirmEmailChange(ctx context.Context, userID uuid.UUID, token string) error {
	if token == "" {
		return apiErrors.NewErrMissingParameters()
	}

	claims, err := a.tokens.ParseActionToken(token, model.SubjectVerifyEmail)
	if err != nil {
		a.logger.Info("Auth service: email change token rejected",
			"user_id", userID,
			"reason", err.Error())
		return apiErrors.NewErrTokenInvalid()
	}

	user, err := a.users.GetByUsername(ctx, claims.Username)
	if errors.Is(err, model.ErrNotFound) {
		return apiErrors.NewErrTokenInvalid()
	}
	if err != nil {
		return fmt.Errorf("failed to get user by username: %w", err)
	}
	if user.ID != userID {
		return apiErrors.NewErrTokenInvalid()
	}

	if claims.Email != user.Email {
		other, err := a.users.GetByEmail(ctx, claims.Email)
		if err == nil && other.ID != user.ID {
			return apiErrors.NewErrEmailTaken()
		}
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("failed to get user by email: %w", err)
		}
	}

	return a.applyVerifiedEmail(ctx, user, claims.Email)
}

// Login checks credentials and opens a session for verified accounts.
func (a *Auth) Login(ctx context.Context, params model.LoginParams) (model.LoginResult, error) {
	if params.Password == "" || (params.Username == "" && params.Email == "") {
		return model.LoginResult{}, apiErrors.NewErrMissingParameters()
	}

	user, err := a.findAccount(ctx, params.AccountLookup)
	if errors.Is(err, model.ErrNotFound) {
		return model.LoginResult{}, apiErrors.NewErrLoginNotFound()
	}
	if err != nil {
		return model.LoginResult{}, err
	}

	ok, err := a.hasher.Compare(user.Auth.PasswordHash, params.Password)
	if err != nil {
		a.logger.Error("Auth service: failed to compare password",
			"user_id", user.ID,
			"error", err.Error())
		return model.LoginResult{}, fmt.Errorf("failed to compare password: %w", err)
	}
	if !ok {
		a.logger.Info("Auth service: wrong password",
			"user_id", user.ID)
		return model.LoginResult{}, apiErrors.NewErrWrongPassword()
	}

	if !user.Auth.IsVerified {
		if err := a.sendVerification(ctx, model.AccountClaims{Username: user.Username, Email: user.Email}); err != nil {
			return model.LoginResult{}, err
		}
		return model.LoginResult{}, apiErrors.NewErrVerificationRequired(user.Email)
	}

	accessToken, refreshToken, err := a.tokenService.Issue(ctx, model.SessionClaims{
		UserID:  user.ID,
		IsAdmin: user.Auth.IsAdmin,
	})
	if err != nil {
		a.logger.Error("Auth service: failed to issue tokens",
			"user_id", user.ID,
			"error", err.Error())
		return model.LoginResult{}, fmt.Errorf("failed to issue token: %w", err)
	}

	a.logger.Info("Auth service: login successful",
		"user_id", user.ID)

	return model.LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// RequestResetPassword emails a reset token and returns the address it was sent to.
func (a *Auth) RequestResetPassword(ctx context.Context, lookup model.AccountLookup) (string, error) {
	if lookup.Username == "" && lookup.Email == "" {
		return "", apiErrors.NewErrMissingParameters()
	}

	user, err := a.findAccount(ctx, lookup)
	if errors.Is(err, model.ErrNotFound) {
		return "", apiErrors.NewErrResetAccountNotFound()
	}
	if err != nil {
		return "", err
	}

	token, err := a.tokens.GenerateActionToken(model.SubjectResetPassword, model.AccountClaims{
		Username: user.Username,
		Email:    user.Email,
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign reset password token: %w", err)
	}

	a.notifier.Notify(ctx, model.Email{
		Kind:     model.EmailResetPassword,
		To:       user.Email,
		Username: user.Username,
		Token:    token,
	})

	a.logger.Info("Auth service: reset password requested",
		"user_id", user.ID)

	return user.Email, nil
}

// ResetPassword replaces the password of the account named by a reset token.
func (a *Auth) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return apiErrors.NewErrMissingParameters()
	}

	claims, err := a.tokens.ParseActionToken(token, model.SubjectResetPassword)
	if err != nil {
		a.logger.Info("Auth service: reset password token rejected",
			"reason", err.Error())
		return apiErrors.NewErrResetTokenInvalid()
	}

	user, err := a.users.GetByUsername(ctx, claims.Username)
	if errors.Is(err, model.ErrNotFound) {
		return apiErrors.NewErrResetTokenInvalid()
	}
	if err != nil {
		return fmt.Errorf("failed to get user by username: %w", err)
	}

	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.Auth.PasswordHash = hash
	user.UpdatedAt = time.Now()

	if _, err := a.users.Update(ctx, user); err != nil {
		a.logger.Error("Auth service: failed to update password",
			"user_id", user.ID,
			"error", err.Error())
		if errors.Is(err, model.ErrNotFound) {
			return apiErrors.NewErrPasswordNotUpdated(err)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	a.logger.Info("Auth service: password updated",
		"user_id", user.ID)

	return nil
}

// RefreshToken issues a new access token for a stored refresh token.
func (a *Auth) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apiErrors.NewErrMissingParameters()
	}

	return a.tokenService.Refresh(ctx, refreshToken)
}

// GetSession resolves the session carried by an access token.
func (a *Auth) GetSession(ctx context.Context, token string) (model.SessionClaims, error) {
	return a.tokenService.GetSession(ctx, token)
}

func (a *Auth) findAccount(ctx context.Context, lookup model.AccountLookup) (model.User, error) {
	if lookup.Username != "" {
		user, err := a.users.GetByUsername(ctx, lookup.Username)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return model.User{}, fmt.Errorf("failed to get user by username: %w", err)
		}
	}

	if lookup.Email != "" {
		user, err := a.users.GetByEmail(ctx, lookup.Email)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
		}
	}

	return model.User{}, model.ErrNotFound
}

func (a *Auth) sendVerification(ctx context.Context, claims model.AccountClaims) error {
	token, err := a.tokens.GenerateActionToken(model.SubjectVerifyEmail, claims)
	if err != nil {
		a.logger.Error("Auth service: failed to sign verification token",
			"username", claims.Username,
			"error", err.Error())
		return fmt.Errorf("failed to sign verification token: %w", err)
	}

	a.notifier.Notify(ctx, model.Email{
		Kind:     model.EmailVerify,
		To:       claims.Email,
		Username: claims.Username,
		Token:    token,
	})

	return nil
}

func (a *Auth) applyVerifiedEmail(ctx context.Context, user model.User, email string) error {
	user.Auth.IsVerified = true
	user.Auth.RemainingTime = nil
	if email != "" {
		user.Email = email
	}
	user.UpdatedAt = time.Now()

	_, err := a.users.Update(ctx, user)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrNotFound):
		return apiErrors.NewErrTokenInvalid()
	case errors.Is(err, model.ErrTxConflict):
		return apiErrors.NewErrEmailTaken()
	default:
		return fmt.Errorf("failed to update user: %w", err)
	}

	a.logger.Info("Auth service: email verified",
		"user_id", user.ID)

	return nil
}
