package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
)

// KEVCatalogKey is the single cache key for the CISA KEV catalog. The
// catalog does not vary by query, so every reader and writer shares it;
// a second key would make trend scans count its entries twice.
const KEVCatalogKey = "cisa-kev-catalog.json"

// CacheStore is the key-value contract for the file-backed TTL cache.
// Keys are deterministic strings derived from source name + normalized
// query parameters (e.g. "abuseipdb-ip-1.2.3.4.json"); callers must
// reproduce the derivation exactly for hits to occur.
type CacheStore interface {
	// Get returns the cached payload, or nil if the key is absent,
	// unreadable, or older than ttl. Expiry is a hard boundary.
	Get(key string, ttl time.Duration) (json.RawMessage, error)
	// Put overwrites the payload for key. Never merges. Concurrent
	// writers race; last writer wins.
	Put(key string, payload json.RawMessage) error
	// Clear removes the entry for key. Missing keys are not an error.
	Clear(key string) error
	// Keys returns the stored keys matching a glob pattern.
	Keys(pattern string) ([]string, error)
}

// RateLimiter tracks per-provider sliding-24h call budgets. The
// IsAllowed + Increment pair is deliberately not atomic: under
// concurrent callers the budget can be exceeded by a small margin,
// acceptable for a single-process deployment.
type RateLimiter interface {
	// IsAllowed reports whether providerID has budget left. An expired
	// window reads as allowed without mutating state.
	IsAllowed(providerID string) bool
	// Increment records one upstream call. Resets the window first if
	// it has expired.
	Increment(providerID string) error
}

// CVESource fetches base vulnerability records (the enrichment spine).
type CVESource interface {
	RecentCVEs(ctx context.Context, days int) ([]domain.CVERecord, error)
	CVEByID(ctx context.Context, cveID string) (*domain.CVERecord, error)
	// Ping verifies the upstream is reachable and credentials are valid.
	Ping(ctx context.Context) error
}

// KEVSource fetches the CISA Known Exploited Vulnerabilities catalog.
type KEVSource interface {
	Catalog(ctx context.Context) (*domain.KEVCatalog, error)
}

// CNASource fetches cvelistV5 delta entries.
type CNASource interface {
	RecentDeltas(ctx context.Context) ([]domain.CNADelta, error)
}

// AdvisorySource fetches vendor security advisories.
type AdvisorySource interface {
	RecentAdvisories(ctx context.Context, perPage int) ([]domain.RedHatAdvisory, error)
}

// TechniqueSource fetches MITRE ATT&CK techniques.
type TechniqueSource interface {
	Techniques(ctx context.Context) ([]domain.MitreTechnique, error)
}

// IPReputationSource fetches malicious-IP intelligence. Calls against
// the blacklist endpoint count against the provider's rate budget.
type IPReputationSource interface {
	Blacklist(ctx context.Context, confidenceMin int) ([]domain.IPReport, error)
	CheckIP(ctx context.Context, address string) (*domain.IPReport, error)
}

// IOCSource fetches indicators of compromise.
type IOCSource interface {
	RecentIOCs(ctx context.Context, days int) ([]domain.ThreatFoxIOC, error)
	IOCsByTag(ctx context.Context, tag string) ([]domain.ThreatFoxIOC, error)
	MalwareList(ctx context.Context) ([]domain.ThreatFoxMalware, error)
}

// SecondaryCVESource is the fallback for single-CVE lookups when the
// primary source fails. Its output is already normalized to the same
// domain.CVERecord shape the primary produces.
type SecondaryCVESource interface {
	CVEByID(ctx context.Context, cveID string) (*domain.CVERecord, error)
}

// NewsSource fetches security headlines.
type NewsSource interface {
	Headlines(ctx context.Context, query string, pageSize int) ([]domain.NewsArticle, error)
}

// CWESource fetches weakness class details.
type CWESource interface {
	CWEByID(ctx context.Context, cweID string) (*domain.CWEEntry, error)
}

// FetchAuditRepository persists the upstream fetch audit trail.
type FetchAuditRepository interface {
	SaveFetchRecord(rec domain.FetchRecord) error
	ListFetchRecords(limit int) ([]domain.FetchRecord, error)
}

// Enricher produces the merged multi-source vulnerability view.
type Enricher interface {
	Enrich(ctx context.Context) (*domain.EnrichmentResult, error)
}

// TrendSource produces the rolling 30-day threat trend series.
type TrendSource interface {
	Trends(ctx context.Context) ([]domain.ThreatTrendPoint, error)
}
