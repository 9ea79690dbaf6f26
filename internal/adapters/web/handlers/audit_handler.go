package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/lcalzada-xor/threatwatch/internal/core/ports"
)

// AuditHandler serves the upstream fetch audit trail.
type AuditHandler struct {
	Repo ports.FetchAuditRepository
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(repo ports.FetchAuditRepository) *AuditHandler {
	return &AuditHandler{Repo: repo}
}

// HandleListFetches returns recent upstream fetches, newest first.
func (h *AuditHandler) HandleListFetches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 1000")
			return
		}
		limit = parsed
	}

	records, err := h.Repo.ListFetchRecords(limit)
	if err != nil {
		log.Printf("[WEB] Audit query failed: %v", err)
		writeError(w, http.StatusInternalServerError, "audit query failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"fetches": records,
	})
}
