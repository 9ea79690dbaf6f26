package handlers

import (
	"log"
	"net/http"

	"github.com/lcalzada-xor/threatwatch/internal/core/ports"
)

// TrendsHandler serves the rolling 30-day threat trend series.
type TrendsHandler struct {
	Source ports.TrendSource
}

// NewTrendsHandler creates a new TrendsHandler.
func NewTrendsHandler(source ports.TrendSource) *TrendsHandler {
	return &TrendsHandler{Source: source}
}

// HandleTrends returns one point per day, oldest first.
func (h *TrendsHandler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	points, err := h.Source.Trends(r.Context())
	if err != nil {
		log.Printf("[WEB] Trend aggregation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "trend aggregation failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trends": points,
	})
}
