package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
	"github.com/lcalzada-xor/threatwatch/internal/core/ports"
)

// ReportExporter renders an enrichment result into a downloadable
// document.
type ReportExporter interface {
	ExportEnrichedReport(result *domain.EnrichmentResult) ([]byte, error)
}

// ReportHandler serves PDF exports of the enriched view.
type ReportHandler struct {
	Feed     LatestProvider
	Enricher ports.Enricher
	Exporter ReportExporter
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(feed LatestProvider, enricher ports.Enricher, exporter ReportExporter) *ReportHandler {
	return &ReportHandler{Feed: feed, Enricher: enricher, Exporter: exporter}
}

// HandleDownloadReport generates a PDF from the latest enrichment run.
func (h *ReportHandler) HandleDownloadReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result := h.latest(r)
	if result == nil {
		writeError(w, http.StatusServiceUnavailable, "no enrichment data available yet")
		return
	}

	payload, err := h.Exporter.ExportEnrichedReport(result)
	if err != nil {
		log.Printf("[WEB] Report export failed: %v", err)
		writeError(w, http.StatusInternalServerError, "report generation failed", err.Error())
		return
	}

	filename := fmt.Sprintf("threatwatch_report_%s.pdf", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Write(payload)
}

func (h *ReportHandler) latest(r *http.Request) *domain.EnrichmentResult {
	if h.Feed != nil {
		if result := h.Feed.Latest(); result != nil {
			return result
		}
	}
	result, err := h.Enricher.Enrich(r.Context())
	if err != nil {
		log.Printf("[WEB] Inline enrichment for report failed: %v", err)
		return nil
	}
	return result
}
