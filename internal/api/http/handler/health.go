package handler

import (
	"context"
	"net/http"
	"time"

	apiErrors "github.com/dtroode/vkn-server/internal/api/errors"
	"github.com/dtroode/vkn-server/internal/logger"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status string `json:"status"`
}

// Health handles GET /health.
type Health struct {
	pinger Pinger
	logger *logger.Logger
}

// NewHealth creates a health handler. A nil pinger always reports ok.
func NewHealth(pinger Pinger, logger *logger.Logger) *Health {
	return &Health{pinger: pinger, logger: logger}
}

func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.pinger.Ping(ctx); err != nil {
			h.logger.Warn("Health handler: store is unreachable", "error", err.Error())
			apiErrors.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}

	apiErrors.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
