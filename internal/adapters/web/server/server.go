package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lcalzada-xor/threatwatch/internal/adapters/reporting"
	"github.com/lcalzada-xor/threatwatch/internal/adapters/web"
	"github.com/lcalzada-xor/threatwatch/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/threatwatch/internal/core/ports"
)

// Dependencies collects everything the HTTP surface needs.
type Dependencies struct {
	Store      ports.CacheStore
	CVE        ports.CVESource
	KEV        ports.KEVSource
	IOCs       ports.IOCSource
	Reputation ports.IPReputationSource
	News       ports.NewsSource
	CWE        ports.CWESource
	Audit      ports.FetchAuditRepository
	Enricher   ports.Enricher
	Trends     ports.TrendSource
	Resolver   handlers.CVEResolver
	Feed       handlers.LatestProvider
	Exporter   *reporting.PDFExporter
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	Addr      string
	WSManager *web.WSManager

	EnrichmentHandler *handlers.EnrichmentHandler
	TrendsHandler     *handlers.TrendsHandler
	CVEHandler        *handlers.CVEHandler
	KEVHandler        *handlers.KEVHandler
	IOCHandler        *handlers.IOCHandler
	NewsHandler       *handlers.NewsHandler
	CWEHandler        *handlers.CWEHandler
	CacheHandler      *handlers.CacheHandler
	AuditHandler      *handlers.AuditHandler
	ReportHandler     *handlers.ReportHandler
	HealthHandler     *handlers.HealthHandler

	srv *http.Server
}

// NewServer creates a new web server.
func NewServer(addr string, wsManager *web.WSManager, deps Dependencies) *Server {
	return &Server{
		Addr:      addr,
		WSManager: wsManager,

		EnrichmentHandler: handlers.NewEnrichmentHandler(deps.Feed, deps.Enricher),
		TrendsHandler:     handlers.NewTrendsHandler(deps.Trends),
		CVEHandler:        handlers.NewCVEHandler(deps.Resolver),
		KEVHandler:        handlers.NewKEVHandler(deps.KEV, deps.Store, 0),
		IOCHandler:        handlers.NewIOCHandler(deps.IOCs, deps.Reputation, deps.Store, 0),
		NewsHandler:       handlers.NewNewsHandler(deps.News, deps.Store, 0),
		CWEHandler:        handlers.NewCWEHandler(deps.CWE),
		CacheHandler:      handlers.NewCacheHandler(deps.Store),
		AuditHandler:      handlers.NewAuditHandler(deps.Audit),
		ReportHandler:     handlers.NewReportHandler(deps.Feed, deps.Enricher, deps.Exporter),
		HealthHandler:     handlers.NewHealthHandler(deps.CVE),
	}
}

// Run starts the server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	handler := SetupRoutes(s)

	// Instrument with OpenTelemetry
	instrumentedHandler := otelhttp.NewHandler(handler, "threatwatch-server")

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           instrumentedHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Println("Web server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Web server shutdown error: %v", err)
		}
	}()

	log.Printf("Web server listening on %s", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
