package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/sentriq/sentriq-backend/internal/repository"
)

// HealthzHandler handles health check endpoints.
type HealthzHandler struct {
	repo repository.Repository
}

func NewHealthzHandler(repo repository.Repository) *HealthzHandler {
	return &HealthzHandler{repo: repo}
}

// Live handles GET /healthz/live. Liveness: the process is up.
func (h *HealthzHandler) Live(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /healthz/ready. Readiness: dependencies answer.
func (h *HealthzHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.repo != nil {
		if err := h.repo.Ping(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"reason": "database_unavailable",
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
