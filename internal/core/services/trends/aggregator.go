package trends

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
	"github.com/lcalzada-xor/threatwatch/internal/core/ports"
)

// scanTTL bounds how old a cached file may be and still feed the trend
// scan. Anything old enough to only hold out-of-window data is skipped.
const scanTTL = 45 * 24 * time.Hour

// dayLabel is the bucket key format. It carries no year, so the same
// label from two different years collides; source behavior preserved.
const dayLabel = "Jan 2"

// Aggregator buckets cached NVD and KEV data by calendar day over a
// rolling 30-day window. It only reads what is already cached; it never
// triggers upstream fetches.
type Aggregator struct {
	store ports.CacheStore
	now   func() time.Time
}

// NewAggregator creates a trends aggregator over the shared cache.
func NewAggregator(store ports.CacheStore) *Aggregator {
	return &Aggregator{store: store, now: time.Now}
}

// Trends returns exactly 30 points, oldest first, one per calendar day
// ending today. Days with no matching cached data stay at zero.
func (a *Aggregator) Trends(ctx context.Context) ([]domain.ThreatTrendPoint, error) {
	now := a.now()

	buckets := make(map[string]*domain.ThreatTrendPoint, domain.TrendWindowDays)
	order := make([]string, 0, domain.TrendWindowDays)
	for i := domain.TrendWindowDays - 1; i >= 0; i-- {
		label := now.AddDate(0, 0, -i).Format(dayLabel)
		buckets[label] = &domain.ThreatTrendPoint{Date: label}
		order = append(order, label)
	}

	windowStart := now.AddDate(0, 0, -domain.TrendWindowDays)

	a.scanCVEs(buckets, windowStart)
	a.scanKEV(buckets, windowStart)

	points := make([]domain.ThreatTrendPoint, 0, len(order))
	for _, label := range order {
		points = append(points, *buckets[label])
	}
	return points, nil
}

// scanCVEs walks every cached NVD file: single-CVE lookups and
// recent-list pages both decode to CVE records. The same CVE can sit in
// a single-lookup entry and a recent-list page at once, so records are
// deduplicated by ID before counting. Per-file failures are logged and
// skipped; the scan continues over the remaining files.
func (a *Aggregator) scanCVEs(buckets map[string]*domain.ThreatTrendPoint, windowStart time.Time) {
	seen := make(map[string]struct{})
	count := func(rec domain.CVERecord) {
		if rec.ID != "" {
			if _, dup := seen[rec.ID]; dup {
				return
			}
			seen[rec.ID] = struct{}{}
		}
		a.bump(buckets, windowStart, rec.Published, false)
	}

	singles, err := a.store.Keys("nvd-cve-*.json")
	if err != nil {
		log.Printf("[TRENDS] NVD cache scan failed: %v", err)
	}
	for _, key := range singles {
		var rec domain.CVERecord
		if !a.read(key, &rec) {
			continue
		}
		count(rec)
	}

	lists, err := a.store.Keys("nvd-recent-*.json")
	if err != nil {
		log.Printf("[TRENDS] NVD list cache scan failed: %v", err)
	}
	for _, key := range lists {
		var recs []domain.CVERecord
		if !a.read(key, &recs) {
			continue
		}
		for _, rec := range recs {
			count(rec)
		}
	}
}

// scanKEV counts KEV catalog entries by their dateAdded. The catalog
// lives under exactly one key; scanning a pattern here would double
// count whenever a stale second copy exists.
func (a *Aggregator) scanKEV(buckets map[string]*domain.ThreatTrendPoint, windowStart time.Time) {
	var catalog domain.KEVCatalog
	if !a.read(ports.KEVCatalogKey, &catalog) {
		return
	}
	for _, entry := range catalog.Vulnerabilities {
		added, err := time.Parse("2006-01-02", entry.DateAdded)
		if err != nil {
			continue
		}
		a.bump(buckets, windowStart, added, true)
	}
}

// bump increments the matching day bucket. Out-of-window or malformed
// dates silently no-op: their label is not a recognized bucket.
func (a *Aggregator) bump(buckets map[string]*domain.ThreatTrendPoint, windowStart, when time.Time, exploit bool) {
	if when.IsZero() || when.Before(windowStart) {
		return
	}
	point, ok := buckets[when.Format(dayLabel)]
	if !ok {
		return
	}
	if exploit {
		point.Exploits++
	} else {
		point.CVEs++
	}
}

// read decodes one cached entry into out, reporting success.
func (a *Aggregator) read(key string, out interface{}) bool {
	payload, err := a.store.Get(key, scanTTL)
	if err != nil || payload == nil {
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		log.Printf("[TRENDS] Skipping unreadable cache entry %s: %v", key, err)
		return false
	}
	return true
}
