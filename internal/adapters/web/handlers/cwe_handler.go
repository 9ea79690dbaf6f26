package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
	"github.com/lcalzada-xor/threatwatch/internal/core/ports"
)

// CWEHandler serves weakness class lookups.
type CWEHandler struct {
	Source ports.CWESource
}

// NewCWEHandler creates a new CWEHandler.
func NewCWEHandler(source ports.CWESource) *CWEHandler {
	return &CWEHandler{Source: source}
}

// HandleGetCWE returns details for the CWE ID in the path. The source
// falls back to an embedded top-weakness table when upstream is down,
// so failures here mean the ID is genuinely unknown.
func (h *CWEHandler) HandleGetCWE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.ToUpper(mux.Vars(r)["id"])
	if !domain.IsValidCWEID(id) {
		writeError(w, http.StatusBadRequest, "invalid CWE identifier")
		return
	}

	entry, err := h.Source.CWEByID(r.Context(), id)
	if err != nil {
		log.Printf("[WEB] CWE lookup %s failed: %v", id, err)
		writeError(w, http.StatusNotFound, "cwe not found", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, entry)
}
