package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/insight/pkg/logger"
)

// Pinger reports backend reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service and store health
type HealthHandler struct {
	store  Pinger
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: log}
}

// Health returns 503 when the store is unreachable
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	body := map[string]interface{}{
		"service":   "insight-scanner",
		"timestamp": time.Now().UTC(),
	}

	if err := h.store.Ping(ctx); err != nil {
		h.logger.WithError(err).Warn("Health check failed")
		body["status"] = "unhealthy"
		body["error"] = err.Error()
		respondJSON(w, http.StatusServiceUnavailable, body)
		return
	}

	body["status"] = "healthy"
	respondJSON(w, http.StatusOK, body)
}
