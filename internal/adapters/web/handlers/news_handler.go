package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
	"github.com/lcalzada-xor/threatwatch/internal/core/ports"
)

// NewsHandler serves cybersecurity headlines.
type NewsHandler struct {
	Source ports.NewsSource
	Store  ports.CacheStore
	TTL    time.Duration
}

// NewNewsHandler creates a new NewsHandler.
func NewNewsHandler(source ports.NewsSource, store ports.CacheStore, ttl time.Duration) *NewsHandler {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &NewsHandler{Source: source, Store: store, TTL: ttl}
}

// HandleNews returns recent headlines for a query, defaulting to
// general cybersecurity coverage.
func (h *NewsHandler) HandleNews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		query = "cybersecurity"
	}

	key := fmt.Sprintf("news-%s.json", strings.ReplaceAll(strings.ToLower(query), " ", "-"))
	articles, err := ports.FetchCached(r.Context(), h.Store, key, h.TTL, func(ctx context.Context) ([]domain.NewsArticle, error) {
		return h.Source.Headlines(ctx, query, 20)
	})
	if err != nil {
		log.Printf("[WEB] News fetch for %q failed: %v", query, err)
		writeError(w, http.StatusBadGateway, "news unavailable", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"articles": articles,
	})
}
