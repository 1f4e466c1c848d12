package handlers

import (
	"net/http"

	"github.com/stackbound/task-service/internal/ports"
)

const (
	statusOK       = "ok"
	statusReady    = "ready"
	statusNotReady = "not_ready"
)

// HealthHandler serves the liveness and readiness probes. Liveness is
// unconditional; readiness runs every check registered for the storage and
// notification dependencies.
type HealthHandler struct {
	registry ports.HealthRegistry
}

func NewHealthHandler(registry ports.HealthRegistry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// Liveness handles GET /health/live. The process answering at all is the
// signal, so this is always 200.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": statusOK})
}

// Readiness handles GET /health/ready: 200 when every registered check
// passes, 503 with the failing checks' errors otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	failed := false
	for name, err := range h.registry.CheckAll(r.Context()) {
		if err != nil {
			failed = true
			checks[name] = err.Error()
			continue
		}
		checks[name] = statusOK
	}

	status, code := statusReady, http.StatusOK
	if failed {
		status, code = statusNotReady, http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": checks,
	})
}
