package handlers

import (
	"net/http"
)

// HealthHandler reports liveness and the running build.
type HealthHandler struct {
	version string
}

// NewHealthHandler builds the health handler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version}
}

// Health handles GET /api/v1/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, map[string]string{
		"status":  "ok",
		"version": h.version,
	}, http.StatusOK)
}
