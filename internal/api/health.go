package api

import (
	"net/http"
	"time"

	"github.com/daybook-ai/daybook/internal/api/respond"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	isHealthy func() bool
}

// NewHealthHandler creates a health handler over an aggregate health probe.
// A nil probe reports healthy, which keeps tests simple.
func NewHealthHandler(isHealthy func() bool) *HealthHandler {
	if isHealthy == nil {
		isHealthy = func() bool { return true }
	}
	return &HealthHandler{isHealthy: isHealthy}
}

// CheckHealth handles GET /api/health. It always returns 200; the body
// reports healthy or unhealthy so probes can distinguish degraded from
// down.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if h.isHealthy() {
		status = "healthy"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
