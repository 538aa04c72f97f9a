package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	apiErrors "github.com/dtroode/vkn-server/internal/api/errors"
	"github.com/dtroode/vkn-server/internal/logger"
	"github.com/dtroode/vkn-server/internal/model"
)

// AuthService defines the account operations exposed over HTTP.
type AuthService interface {
	Signup(ctx context.Context, params model.SignupParams) error
	RequestVerifyEmail(ctx context.Context, lookup model.AccountLookup) error
	VerifyEmail(ctx context.Context, token string) error
	RequestEmailChange(ctx context.Context, userID uuid.UUID, newEmail string) error
	ConfirmEmailChange(ctx context.Context, userID uuid.UUID, token string) error
	Login(ctx context.Context, params model.LoginParams) (model.LoginResult, error)
	RequestResetPassword(ctx context.Context, lookup model.AccountLookup) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type lookupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type emailChangeRequest struct {
	NewEmail string `json:"newEmail"`
}

// userData is the public view of an account. Credentials are never included.
type userData struct {
	ID        uuid.UUID `json:"_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsAdmin   bool      `json:"isAdmin,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type loginResponse struct {
	Status       string   `json:"status"`
	Message      string   `json:"message"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	Data         userData `json:"data"`
}

type refreshTokenResponse struct {
	Status       string `json:"status"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SessionContext reads the authenticated session from a request context.
type SessionContext interface {
	GetSessionFromContext(ctx context.Context) (model.SessionClaims, bool)
}

// Auth handles HTTP endpoints for account authentication.
type Auth struct {
	authService    AuthService
	contextManager SessionContext
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, contextManager SessionContext, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Signup handles POST /auth/signup.
func (h *Auth) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.authService.Signup(r.Context(), model.SignupParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusCreated, "Account is created")
}

// RequestVerifyEmail handles POST /auth/request/verify-email.
func (h *Auth) RequestVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.authService.RequestVerifyEmail(r.Context(), model.AccountLookup{Username: req.Username, Email: req.Email})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusCreated, "Verification email is send")
}

// VerifyEmail handles PATCH /auth/verify-email.
func (h *Auth) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.authService.VerifyEmail(r.Context(), req.Token); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "Email is verified")
}

// Login handles POST /auth/login.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), model.LoginParams{
		AccountLookup: model.AccountLookup{Username: req.Username, Email: req.Email},
		Password:      req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	apiErrors.WriteJSON(w, http.StatusOK, loginResponse{
		Status:       apiErrors.StatusSuccess,
		Message:      "Login successful",
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		Data:         toUserData(result.User),
	})
}

// RequestResetPassword handles POST /auth/request/reset-password.
func (h *Auth) RequestResetPassword(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if !h.decode(w, r, &req) {
		return
	}

	email, err := h.authService.RequestResetPassword(r.Context(), model.AccountLookup{Username: req.Username, Email: req.Email})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	apiErrors.WriteJSON(w, http.StatusOK, apiErrors.Response{
		Status:  apiErrors.StatusSuccess,
		Message: "Reset password email is send",
		Email:   email,
	})
}

// ResetPassword handles PATCH /auth/reset-password.
func (h *Auth) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "Password is updated")
}

// RefreshToken handles POST /auth/refresh-token.
func (h *Auth) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if !h.decode(w, r, &req) {
		return
	}

	access, err := h.authService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	apiErrors.WriteJSON(w, http.StatusCreated, refreshTokenResponse{
		Status:       apiErrors.StatusSuccess,
		AccessToken:  access,
		RefreshToken: req.RefreshToken,
	})
}

// RequestEmailChange handles POST /user/edit/email/request.
func (h *Auth) RequestEmailChange(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req emailChangeRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.authService.RequestEmailChange(r.Context(), session.UserID, req.NewEmail); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusCreated, "Verification email is send")
}

// ConfirmEmailChange handles PATCH /user/edit/email.
func (h *Auth) ConfirmEmailChange(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req tokenRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.authService.ConfirmEmailChange(r.Context(), session.UserID, req.Token); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeSuccess(w, http.StatusOK, "Email is updated")
}

func (h *Auth) session(w http.ResponseWriter, r *http.Request) (model.SessionClaims, bool) {
	session, ok := h.contextManager.GetSessionFromContext(r.Context())
	if !ok {
		apiErrors.WriteError(w, apiErrors.NewErrMissingAuthorizationToken())
		return model.SessionClaims{}, false
	}
	return session, true
}

// decode reads a JSON body into dst. A malformed body is reported like a missing field.
func (h *Auth) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Debug("Auth handler: malformed request body",
			"path", r.URL.Path,
			"error", err.Error())
		apiErrors.WriteError(w, apiErrors.NewErrMissingParameters())
		return false
	}
	return true
}

func (h *Auth) writeSuccess(w http.ResponseWriter, status int, message string) {
	apiErrors.WriteJSON(w, status, apiErrors.Response{
		Status:  apiErrors.StatusSuccess,
		Message: message,
	})
}

func (h *Auth) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apiErrors.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind == apiErrors.KindInternal {
		h.logger.Error("Auth handler: request failed",
			"path", r.URL.Path,
			"error", err.Error())
	}
	apiErrors.WriteError(w, err)
}

func toUserData(u model.User) userData {
	return userData{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Name:      u.Name,
		IsAdmin:   u.Auth.IsAdmin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
