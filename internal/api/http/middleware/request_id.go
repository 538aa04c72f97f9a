package middleware

import (
	"context"
	"net/http"

	"github.com/segmentio/ksuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestIDContext stores the request id on a context.
type RequestIDContext interface {
	SetRequestIDToContext(ctx context.Context, requestID string) context.Context
	GetRequestIDFromContext(ctx context.Context) (string, bool)
}

// RequestID assigns every request an id, reusing the one sent by the client if any.
type RequestID struct {
	contextManager RequestIDContext
}

func NewRequestID(contextManager RequestIDContext) *RequestID {
	return &RequestID{contextManager: contextManager}
}

func (m *RequestID) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = ksuid.New().String()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(m.contextManager.SetRequestIDToContext(r.Context(), id)))
	})
}
