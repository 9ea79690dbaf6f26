package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
	"github.com/lcalzada-xor/threatwatch/internal/core/ports"
)

// cveTTL is the staleness bound for cached single-CVE lookups.
const cveTTL = 24 * time.Hour

// Resolver answers single-CVE lookups: NVD first, Vulners second. The
// secondary's output is already normalized to the primary's record
// shape, so callers cannot tell which source answered.
type Resolver struct {
	store     ports.CacheStore
	primary   ports.CVESource
	secondary ports.SecondaryCVESource
}

// NewResolver builds a fallback resolver.
func NewResolver(store ports.CacheStore, primary ports.CVESource, secondary ports.SecondaryCVESource) *Resolver {
	return &Resolver{store: store, primary: primary, secondary: secondary}
}

// GetCVE resolves one CVE, serving a fresh cached answer when present.
// It fails only when both sources fail.
func (r *Resolver) GetCVE(ctx context.Context, cveID string) (*domain.CVERecord, error) {
	if !domain.IsValidCVEID(cveID) {
		return nil, fmt.Errorf("invalid CVE identifier %q", cveID)
	}

	key := fmt.Sprintf("nvd-cve-%s.json", cveID)
	if payload, err := r.store.Get(key, cveTTL); err == nil && payload != nil {
		var rec domain.CVERecord
		if err := json.Unmarshal(payload, &rec); err == nil && rec.ID != "" {
			return &rec, nil
		}
	}

	rec, primaryErr := r.primary.CVEByID(ctx, cveID)
	if primaryErr == nil && rec != nil && rec.ID != "" {
		r.cache(key, rec)
		return rec, nil
	}

	log.Printf("[RESOLVER] NVD lookup of %s failed, trying vulners: %v", cveID, primaryErr)

	rec, secondaryErr := r.secondary.CVEByID(ctx, cveID)
	if secondaryErr == nil && rec != nil && rec.ID != "" {
		r.cache(key, rec)
		return rec, nil
	}

	return nil, fmt.Errorf("%s not available from any source (nvd: %v, vulners: %v)", cveID, primaryErr, secondaryErr)
}

// cache writes the resolved record back. Write failures are logged only.
func (r *Resolver) cache(key string, rec *domain.CVERecord) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := r.store.Put(key, payload); err != nil {
		log.Printf("[RESOLVER] Failed to cache %s: %v", key, err)
	}
}
