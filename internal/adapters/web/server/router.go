package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lcalzada-xor/threatwatch/internal/adapters/web/middleware"
)

func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()

	// Rate limiters
	lookupLimiter := middleware.NewRateLimiter(30, 1*time.Minute) // 30 single-item lookups per minute
	clearLimiter := middleware.NewRateLimiter(5, 1*time.Minute)   // 5 cache clears per minute

	limitLookup := middleware.RateLimitMiddleware(lookupLimiter)
	limitClear := middleware.RateLimitMiddleware(clearLimiter)

	// WebSocket endpoint for refresh notifications
	r.HandleFunc("/ws", s.WSManager.HandleWebSocket)

	// Enriched view and trends
	r.HandleFunc("/api/enrichment", s.EnrichmentHandler.HandleEnrichment).Methods(http.MethodGet)
	r.HandleFunc("/api/trends", s.TrendsHandler.HandleTrends).Methods(http.MethodGet)

	// Single-item lookups (rate limited, they can trigger upstream calls)
	r.Handle("/api/cve/{id}", limitLookup(http.HandlerFunc(s.CVEHandler.HandleGetCVE))).Methods(http.MethodGet)
	r.Handle("/api/cwe/{id}", limitLookup(http.HandlerFunc(s.CWEHandler.HandleGetCWE))).Methods(http.MethodGet)
	r.Handle("/api/ip/{ip}", limitLookup(http.HandlerFunc(s.IOCHandler.HandleCheckIP))).Methods(http.MethodGet)

	// KEV catalog
	r.HandleFunc("/api/kev", s.KEVHandler.HandleCatalog).Methods(http.MethodGet)
	r.HandleFunc("/api/kev/urgency", s.KEVHandler.HandleUrgency).Methods(http.MethodGet)

	// ThreatFox IOC feeds
	r.HandleFunc("/api/iocs", s.IOCHandler.HandleRecentIOCs).Methods(http.MethodGet)
	r.HandleFunc("/api/iocs/tag/{tag}", s.IOCHandler.HandleIOCsByTag).Methods(http.MethodGet)
	r.HandleFunc("/api/malware", s.IOCHandler.HandleMalwareList).Methods(http.MethodGet)

	// News headlines
	r.HandleFunc("/api/news", s.NewsHandler.HandleNews).Methods(http.MethodGet)

	// Cache maintenance
	r.HandleFunc("/api/cache/keys", s.CacheHandler.HandleKeys).Methods(http.MethodGet)
	r.Handle("/api/cache/clear", limitClear(http.HandlerFunc(s.CacheHandler.HandleClear))).Methods(http.MethodPost)

	// Fetch audit trail
	r.HandleFunc("/api/audit/fetches", s.AuditHandler.HandleListFetches).Methods(http.MethodGet)

	// Reports
	r.HandleFunc("/api/reports/download", s.ReportHandler.HandleDownloadReport).Methods(http.MethodGet)

	// Health and metrics
	r.HandleFunc("/api/health", s.HealthHandler.HandleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
