package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
	"github.com/lcalzada-xor/threatwatch/internal/core/ports"
)

// IOCHandler serves ThreatFox indicators and AbuseIPDB IP lookups.
type IOCHandler struct {
	IOCs       ports.IOCSource
	Reputation ports.IPReputationSource
	Store      ports.CacheStore
	TTL        time.Duration
}

// NewIOCHandler creates a new IOCHandler.
func NewIOCHandler(iocs ports.IOCSource, reputation ports.IPReputationSource, store ports.CacheStore, ttl time.Duration) *IOCHandler {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &IOCHandler{IOCs: iocs, Reputation: reputation, Store: store, TTL: ttl}
}

// HandleRecentIOCs returns recent indicators. Window defaults to 7
// days, clamped to the upstream maximum.
func (h *IOCHandler) HandleRecentIOCs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 90 {
			writeError(w, http.StatusBadRequest, "days must be an integer between 1 and 90")
			return
		}
		days = parsed
	}

	key := fmt.Sprintf("threatfox-recent-%ddays.json", days)
	iocs, err := ports.FetchCached(r.Context(), h.Store, key, h.TTL, func(ctx context.Context) ([]domain.ThreatFoxIOC, error) {
		return h.IOCs.RecentIOCs(ctx, days)
	})
	if err != nil {
		log.Printf("[WEB] ThreatFox IOC fetch failed: %v", err)
		writeError(w, http.StatusBadGateway, "ioc feed unavailable", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"iocs": iocs,
	})
}

// HandleIOCsByTag returns indicators matching the malware tag in the
// path.
func (h *IOCHandler) HandleIOCsByTag(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tag := mux.Vars(r)["tag"]
	if tag == "" {
		writeError(w, http.StatusBadRequest, "missing tag")
		return
	}

	key := fmt.Sprintf("threatfox-tag-%s.json", tag)
	iocs, err := ports.FetchCached(r.Context(), h.Store, key, h.TTL, func(ctx context.Context) ([]domain.ThreatFoxIOC, error) {
		return h.IOCs.IOCsByTag(ctx, tag)
	})
	if err != nil {
		log.Printf("[WEB] ThreatFox tag query %q failed: %v", tag, err)
		writeError(w, http.StatusBadGateway, "ioc feed unavailable", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"iocs": iocs,
	})
}

// HandleMalwareList returns the ThreatFox malware family directory.
func (h *IOCHandler) HandleMalwareList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	families, err := ports.FetchCached(r.Context(), h.Store, "threatfox-malware.json", 24*time.Hour, func(ctx context.Context) ([]domain.ThreatFoxMalware, error) {
		return h.IOCs.MalwareList(ctx)
	})
	if err != nil {
		log.Printf("[WEB] ThreatFox malware list fetch failed: %v", err)
		writeError(w, http.StatusBadGateway, "malware list unavailable", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"malware": families,
	})
}

// HandleCheckIP returns the reputation report for a single address.
// Single-address lookups do not count against the blacklist budget.
func (h *IOCHandler) HandleCheckIP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	address := mux.Vars(r)["ip"]
	if !domain.IsValidIPv4(address) {
		writeError(w, http.StatusBadRequest, "invalid IPv4 address")
		return
	}

	key := fmt.Sprintf("abuseipdb-ip-%s.json", address)
	report, err := ports.FetchCached(r.Context(), h.Store, key, h.TTL, func(ctx context.Context) (*domain.IPReport, error) {
		return h.Reputation.CheckIP(ctx, address)
	})
	if err != nil {
		log.Printf("[WEB] IP reputation lookup %s failed: %v", address, err)
		writeError(w, http.StatusBadGateway, "ip reputation unavailable", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}
