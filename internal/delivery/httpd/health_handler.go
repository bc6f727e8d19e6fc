package httpd

import (
	"context"
	"net/http"
	"time"

	"github.com/RubachokBoss/student-portal/internal/models"
	"github.com/RubachokBoss/student-portal/internal/service"
)

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "student-portal",
		"sessions":  h.sessions.Len(),
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn().Err(err).Str("check", name).Msg("Readiness check failed")
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status":    state,
		"checks":    checks,
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	resources := h.resources
	if resources == nil {
		resources = []models.Resource{}
	}
	writeSuccess(w, http.StatusOK, models.ResourcesResponse{
		Resources:         resources,
		AcceptList:        service.AcceptList(),
		AllowedExtensions: service.AllowedExtensions,
	})
}
