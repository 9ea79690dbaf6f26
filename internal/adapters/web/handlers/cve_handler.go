package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
)

// CVEResolver looks up a single CVE record, falling back to a
// secondary source when the primary fails.
type CVEResolver interface {
	GetCVE(ctx context.Context, cveID string) (*domain.CVERecord, error)
}

// CVEHandler serves single-CVE lookups.
type CVEHandler struct {
	Resolver CVEResolver
}

// NewCVEHandler creates a new CVEHandler.
func NewCVEHandler(resolver CVEResolver) *CVEHandler {
	return &CVEHandler{Resolver: resolver}
}

// HandleGetCVE returns the record for the CVE ID in the path.
func (h *CVEHandler) HandleGetCVE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.ToUpper(mux.Vars(r)["id"])
	if !domain.IsValidCVEID(id) {
		writeError(w, http.StatusBadRequest, "invalid CVE identifier")
		return
	}

	rec, err := h.Resolver.GetCVE(r.Context(), id)
	if err != nil {
		log.Printf("[WEB] CVE lookup %s failed: %v", id, err)
		writeError(w, http.StatusBadGateway, "cve lookup failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rec)
}
