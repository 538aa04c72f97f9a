// Package errors defines the errors returned to API clients and how they are written to HTTP responses.
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Kind classifies an APIError.
type Kind string

const (
	KindMissingParameters    Kind = "missing_parameters"
	KindRejected             Kind = "rejected"
	KindTokenInvalid         Kind = "token_invalid"
	KindUnauthorized         Kind = "unauthorized"
	KindVerificationRequired Kind = "verification_required"
	KindInternal             Kind = "internal"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusWarning = "warning"
)

// APIError is an error that carries its client-facing representation.
type APIError struct {
	Kind       Kind
	HTTPStatus int
	Status     string
	Message    string
	// Email is echoed back to the client when set.
	Email string
	Cause error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// Response is the JSON body of every API response.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}

func newError(kind Kind, httpStatus int, status, message string) *APIError {
	return &APIError{Kind: kind, HTTPStatus: httpStatus, Status: status, Message: message}
}

func NewErrMissingParameters() *APIError {
	return newError(KindMissingParameters, http.StatusBadRequest, StatusError, "Missing parameters")
}

func NewErrUsernameTaken() *APIError {
	return newError(KindRejected, http.StatusOK, StatusError, "Username already exists")
}

func NewErrEmailTaken() *APIError {
	return newError(KindRejected, http.StatusOK, StatusError, "User with given email already exist")
}

func NewErrAccountNotFound() *APIError {
	return newError(KindRejected, http.StatusOK, StatusError, "Not contain account using this username or email")
}

func NewErrAlreadyVerified() *APIError {
	return newError(KindRejected, http.StatusOK, StatusWarning, "Email is verified already before")
}

func NewErrResetAccountNotFound() *APIError {
	return newError(KindRejected, http.StatusOK, StatusError, "Not found an account with this username (or email)")
}

// NewErrTokenInvalid is returned when an email verification token cannot be used.
func NewErrTokenInvalid() *APIError {
	return newError(KindTokenInvalid, http.StatusBadRequest, StatusError, "Token is invalid")
}

// NewErrResetTokenInvalid is returned when a reset password token cannot be used.
func NewErrResetTokenInvalid() *APIError {
	return newError(KindTokenInvalid, http.StatusOK, StatusError, "Token is invalid or expired")
}

func NewErrLoginNotFound() *APIError {
	return newError(KindUnauthorized, http.StatusUnauthorized, StatusError, "Username or email is not found")
}

func NewErrWrongPassword() *APIError {
	return newError(KindUnauthorized, http.StatusUnauthorized, StatusError, "Password is wrong")
}

// NewErrVerificationRequired is returned by login for accounts with an unverified email.
func NewErrVerificationRequired(email string) *APIError {
	e := newError(KindVerificationRequired, http.StatusTemporaryRedirect, StatusError, "Verify email of account")
	e.Email = email
	return e
}

func NewErrRefreshTokenNotFound() *APIError {
	return newError(KindTokenInvalid, http.StatusOK, StatusError, "Refresh token does not exist")
}

func NewErrRefreshTokenExpired() *APIError {
	return newError(KindTokenInvalid, http.StatusOK, StatusError, "Expired refresh token. Login again to create new one")
}

func NewErrRefreshTokenInvalid() *APIError {
	return newError(KindTokenInvalid, http.StatusOK, StatusError, "Invalid refresh token. Login again")
}

func NewErrMissingAuthorizationToken() *APIError {
	return newError(KindUnauthorized, http.StatusUnauthorized, StatusError, "Access token is missing")
}

func NewErrInvalidAuthorizationToken() *APIError {
	return newError(KindUnauthorized, http.StatusUnauthorized, StatusError, "Access token is invalid")
}

func NewErrPasswordNotUpdated(cause error) *APIError {
	e := newError(KindInternal, http.StatusInternalServerError, StatusError, "Password is not updated")
	e.Cause = cause
	return e
}

func NewErrInternal(cause error) *APIError {
	e := newError(KindInternal, http.StatusInternalServerError, StatusError, "Internal server error")
	e.Cause = cause
	return e
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err as a JSON response. Errors that are not *APIError are written as internal errors.
func WriteError(w http.ResponseWriter, err error) {
	apiErr, ok := As(err)
	if !ok {
		apiErr = NewErrInternal(err)
	}

	WriteJSON(w, apiErr.HTTPStatus, Response{
		Status:  apiErr.Status,
		Message: apiErr.Message,
		Email:   apiErr.Email,
	})
}
