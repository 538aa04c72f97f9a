package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("db down")
	err := NewErrInternal(cause)

	assert.Equal(t, "internal: Internal server error: db down", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "missing_parameters: Missing parameters", NewErrMissingParameters().Error())
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("failed to signup: %w", NewErrUsernameTaken())

	apiErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "Username already exists", apiErr.Message)
	assert.True(t, IsKind(wrapped, KindRejected))
	assert.False(t, IsKind(wrapped, KindInternal))

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   Response
	}{
		{
			name:       "missing parameters",
			err:        NewErrMissingParameters(),
			wantStatus: http.StatusBadRequest,
			wantBody:   Response{Status: StatusError, Message: "Missing parameters"},
		},
		{
			name:       "soft rejection",
			err:        NewErrAlreadyVerified(),
			wantStatus: http.StatusOK,
			wantBody:   Response{Status: StatusWarning, Message: "Email is verified already before"},
		},
		{
			name:       "verification required carries email",
			err:        NewErrVerificationRequired("a@b.c"),
			wantStatus: http.StatusTemporaryRedirect,
			wantBody:   Response{Status: StatusError, Message: "Verify email of account", Email: "a@b.c"},
		},
		{
			name:       "wrapped api error",
			err:        fmt.Errorf("failed to login: %w", NewErrWrongPassword()),
			wantStatus: http.StatusUnauthorized,
			wantBody:   Response{Status: StatusError, Message: "Password is wrong"},
		},
		{
			name:       "unknown error hides cause",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   Response{Status: StatusError, Message: "Internal server error"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
