package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apiErrors "github.com/dtroode/vkn-server/internal/api/errors"
	"github.com/dtroode/vkn-server/internal/logger"
)

// Recovery turns a panicking handler into a 500 response.
type Recovery struct {
	logger *logger.Logger
}

func NewRecovery(logger *logger.Logger) *Recovery {
	return &Recovery{logger: logger}
}

func (m *Recovery) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			m.logger.Error("HTTP handler panicked",
				"method", r.Method,
				"path", r.URL.Path,
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()))
			apiErrors.WriteError(w, apiErrors.NewErrInternal(fmt.Errorf("panic: %v", rec)))
		}()

		next.ServeHTTP(w, r)
	})
}
