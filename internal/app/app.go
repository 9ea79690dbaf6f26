package app

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/lcalzada-xor/threatwatch/internal/adapters/cache"
	"github.com/lcalzada-xor/threatwatch/internal/adapters/providers"
	"github.com/lcalzada-xor/threatwatch/internal/adapters/ratelimit"
	"github.com/lcalzada-xor/threatwatch/internal/adapters/reporting"
	"github.com/lcalzada-xor/threatwatch/internal/adapters/storage"
	"github.com/lcalzada-xor/threatwatch/internal/adapters/web"
	webserver "github.com/lcalzada-xor/threatwatch/internal/adapters/web/server"
	"github.com/lcalzada-xor/threatwatch/internal/config"
	"github.com/lcalzada-xor/threatwatch/internal/core/ports"
	"github.com/lcalzada-xor/threatwatch/internal/core/services/enrichment"
	"github.com/lcalzada-xor/threatwatch/internal/core/services/feed"
	"github.com/lcalzada-xor/threatwatch/internal/core/services/resolver"
	"github.com/lcalzada-xor/threatwatch/internal/core/services/trends"
	"github.com/lcalzada-xor/threatwatch/internal/telemetry"
)

// Application holds the core components of the application. It acts as
// the facade for the entire system, orchestrating services and
// infrastructure.
type Application struct {
	Config    *config.Config
	Store     ports.CacheStore
	Limiter   ports.RateLimiter
	AuditRepo ports.FetchAuditRepository
	Engine    *enrichment.Engine
	Refresher *feed.Refresher
	WebServer *webserver.Server
	WSManager *web.WSManager
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
	}

	if err := app.bootstrap(); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}

	return app, nil
}

// bootstrap orchestrates the initialization sequence.
func (app *Application) bootstrap() error {
	// 1. Foundation & Infrastructure
	telemetry.InitMetrics()

	store, err := app.initCache()
	if err != nil {
		return err
	}
	app.Store = store

	// The budget files live outside the cache directory so that cache
	// clearing cannot reset provider call budgets.
	limiter, err := ratelimit.NewBudgetLimiter(filepath.Join(app.Config.CacheDir, "ratelimit"))
	if err != nil {
		return fmt.Errorf("rate limiter init: %w", err)
	}
	app.Limiter = limiter

	auditRepo, err := storage.NewSQLiteAuditRepo(app.Config.AuditDBPath)
	if err != nil {
		return fmt.Errorf("audit repository init: %w", err)
	}
	app.AuditRepo = auditRepo

	// 2. Provider Adapters
	client := providers.NewClient(auditRepo)

	nvd := providers.NewNVDClient(client, "", app.Config.NVDAPIKey)
	kev := providers.NewKEVClient(client, "")
	cvelist := providers.NewCVEListClient(client, "")
	redhat := providers.NewRedHatClient(client, "")
	mitre := providers.NewMitreClient(client, "")
	abuse := providers.NewAbuseIPDBClient(client, limiter, "", app.Config.AbuseIPDBKey)
	threatfox := providers.NewThreatFoxClient(client, "")
	vulners := providers.NewVulnersClient(client, "", app.Config.VulnersAPIKey)
	news := providers.NewNewsClient(client, "", app.Config.NewsAPIKey)
	cwe := providers.NewCWEClient(client, "")

	// 3. Domain Services
	app.Engine = enrichment.NewEngine(store, nvd, kev, cvelist, redhat, mitre, abuse,
		enrichment.DefaultTTLs(), app.Config.WindowDays)
	trendAgg := trends.NewAggregator(store)
	cveResolver := resolver.NewResolver(store, nvd, vulners)

	// 4. Feed & Servers
	app.WSManager = web.NewWSManager()
	app.Refresher = feed.NewRefresher(app.Engine, app.WSManager, app.Config.RefreshInterval)

	app.WebServer = webserver.NewServer(app.Config.Addr, app.WSManager, webserver.Dependencies{
		Store:      store,
		CVE:        nvd,
		KEV:        kev,
		IOCs:       threatfox,
		Reputation: abuse,
		News:       news,
		CWE:        cwe,
		Audit:      auditRepo,
		Enricher:   app.Engine,
		Trends:     trendAgg,
		Resolver:   cveResolver,
		Feed:       app.Refresher,
		Exporter:   reporting.NewPDFExporter(),
	})

	return nil
}

// initCache selects the cache backend from config.
func (app *Application) initCache() (ports.CacheStore, error) {
	if app.Config.CacheBackend == "sqlite" {
		store, err := cache.NewSQLiteStore(app.Config.CacheDBPath)
		if err != nil {
			return nil, fmt.Errorf("sqlite cache init: %w", err)
		}
		log.Printf("[APP] Using SQLite cache at %s", app.Config.CacheDBPath)
		return store, nil
	}

	store, err := cache.NewFileStore(app.Config.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("file cache init: %w", err)
	}
	log.Printf("[APP] Using file cache in %s", app.Config.CacheDir)
	return store, nil
}

// Run starts the background refresher and the web server, blocking
// until ctx is cancelled.
func (app *Application) Run(ctx context.Context) error {
	go app.Refresher.Run(ctx)

	return app.WebServer.Run(ctx)
}
