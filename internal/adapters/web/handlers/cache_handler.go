package handlers

import (
	"log"
	"net/http"

	"github.com/lcalzada-xor/threatwatch/internal/core/ports"
)

// CacheHandler exposes cache maintenance operations.
type CacheHandler struct {
	Store ports.CacheStore
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(store ports.CacheStore) *CacheHandler {
	return &CacheHandler{Store: store}
}

// HandleClear removes cached entries. A pattern query narrows the
// deletion; without one every entry goes.
func (h *CacheHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		pattern = "*"
	}

	keys, err := h.Store.Keys(pattern)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pattern", err.Error())
		return
	}

	cleared := 0
	for _, key := range keys {
		if err := h.Store.Clear(key); err != nil {
			log.Printf("[WEB] Cache clear of %s failed: %v", key, err)
			continue
		}
		cleared++
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cleared": cleared,
	})
}

// HandleKeys lists cached keys matching a pattern.
func (h *CacheHandler) HandleKeys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		pattern = "*"
	}

	keys, err := h.Store.Keys(pattern)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pattern", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"keys": keys,
	})
}
