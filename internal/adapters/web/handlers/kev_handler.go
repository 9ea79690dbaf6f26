package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
	"github.com/lcalzada-xor/threatwatch/internal/core/ports"
)

// KEVHandler serves the CISA Known Exploited Vulnerabilities catalog.
type KEVHandler struct {
	Source ports.KEVSource
	Store  ports.CacheStore
	TTL    time.Duration
}

// NewKEVHandler creates a new KEVHandler.
func NewKEVHandler(source ports.KEVSource, store ports.CacheStore, ttl time.Duration) *KEVHandler {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &KEVHandler{Source: source, Store: store, TTL: ttl}
}

// HandleCatalog returns the full KEV catalog.
func (h *KEVHandler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cat, err := h.catalog(r.Context())
	if err != nil {
		log.Printf("[WEB] KEV catalog fetch failed: %v", err)
		writeError(w, http.StatusBadGateway, "kev catalog unavailable", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, cat)
}

// HandleUrgency returns KEV entries grouped by remediation urgency
// based on their due dates.
func (h *KEVHandler) HandleUrgency(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cat, err := h.catalog(r.Context())
	if err != nil {
		log.Printf("[WEB] KEV catalog fetch failed: %v", err)
		writeError(w, http.StatusBadGateway, "kev catalog unavailable", err.Error())
		return
	}

	now := time.Now()
	buckets := map[string][]domain.KEVEntry{
		"urgent":   {},
		"upcoming": {},
		"later":    {},
		"unknown":  {},
	}
	for _, entry := range cat.Vulnerabilities {
		buckets[entry.Urgency(now)] = append(buckets[entry.Urgency(now)], entry)
	}

	writeJSON(w, http.StatusOK, buckets)
}

func (h *KEVHandler) catalog(ctx context.Context) (*domain.KEVCatalog, error) {
	return ports.FetchCached(ctx, h.Store, ports.KEVCatalogKey, h.TTL, func(ctx context.Context) (*domain.KEVCatalog, error) {
		return h.Source.Catalog(ctx)
	})
}
