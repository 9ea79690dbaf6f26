package handlers

import (
	"net/http"

	"github.com/lcalzada-xor/threatwatch/internal/core/ports"
)

// HealthHandler reports service and upstream availability.
type HealthHandler struct {
	CVE ports.CVESource
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(cve ports.CVESource) *HealthHandler {
	return &HealthHandler{CVE: cve}
}

// HandleHealth pings the vulnerability spine. The service is degraded,
// not down, when the upstream is unreachable.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := map[string]string{
		"status": "ok",
		"nvd":    "ok",
	}
	if err := h.CVE.Ping(r.Context()); err != nil {
		status["status"] = "degraded"
		status["nvd"] = err.Error()
	}

	writeJSON(w, http.StatusOK, status)
}
