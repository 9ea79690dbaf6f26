package handlers

import (
	"log"
	"net/http"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
	"github.com/lcalzada-xor/threatwatch/internal/core/ports"
)

// LatestProvider serves the most recent completed enrichment run.
type LatestProvider interface {
	Latest() *domain.EnrichmentResult
}

// EnrichmentHandler serves the merged multi-source vulnerability view.
type EnrichmentHandler struct {
	Feed     LatestProvider
	Enricher ports.Enricher
}

// NewEnrichmentHandler creates a new EnrichmentHandler. feed may be nil
// when no background refresher is running.
func NewEnrichmentHandler(feed LatestProvider, enricher ports.Enricher) *EnrichmentHandler {
	return &EnrichmentHandler{Feed: feed, Enricher: enricher}
}

// HandleEnrichment returns the enriched vulnerability set. The feed's
// latest run is served when available; otherwise a run happens inline.
// A failed spine load is a hard failure, per-source failures show up
// in the warnings list instead.
func (h *EnrichmentHandler) HandleEnrichment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.Feed != nil && r.URL.Query().Get("refresh") == "" {
		if latest := h.Feed.Latest(); latest != nil {
			writeJSON(w, http.StatusOK, latest)
			return
		}
	}

	result, err := h.Enricher.Enrich(r.Context())
	if err != nil {
		log.Printf("[WEB] Enrichment failed: %v", err)
		writeError(w, http.StatusBadGateway, "enrichment unavailable", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}
