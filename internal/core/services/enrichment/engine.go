package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
	"github.com/lcalzada-xor/threatwatch/internal/core/ports"
	"github.com/lcalzada-xor/threatwatch/internal/telemetry"
)

// TTLs control staleness per source. They are independent of the
// upstream call budgets: the cache decides when to refetch, the budget
// decides whether a refetch may happen at all.
type TTLConfig struct {
	NVD    time.Duration
	KEV    time.Duration
	CNA    time.Duration
	RedHat time.Duration
	Mitre  time.Duration
	Abuse  time.Duration
}

// DefaultTTLs returns the staleness policy used in production.
func DefaultTTLs() TTLConfig {
	return TTLConfig{
		NVD:    6 * time.Hour,
		KEV:    12 * time.Hour,
		CNA:    6 * time.Hour,
		RedHat: 12 * time.Hour,
		Mitre:  7 * 24 * time.Hour,
		Abuse:  24 * time.Hour,
	}
}

// Engine joins NVD base records with KEV, CNA/ADP, Red Hat, MITRE and
// AbuseIPDB data into one view keyed by CVE ID, and cross-references
// free description text against techniques and malicious IPs.
type Engine struct {
	store  ports.CacheStore
	nvd    ports.CVESource
	kev    ports.KEVSource
	cna    ports.CNASource
	redhat ports.AdvisorySource
	mitre  ports.TechniqueSource
	ipRep  ports.IPReputationSource

	ttls       TTLConfig
	windowDays int
}

// NewEngine builds an enrichment engine over the given sources.
func NewEngine(
	store ports.CacheStore,
	nvd ports.CVESource,
	kev ports.KEVSource,
	cna ports.CNASource,
	redhat ports.AdvisorySource,
	mitre ports.TechniqueSource,
	ipRep ports.IPReputationSource,
	ttls TTLConfig,
	windowDays int,
) *Engine {
	if windowDays <= 0 {
		windowDays = domain.TrendWindowDays
	}
	return &Engine{
		store:      store,
		nvd:        nvd,
		kev:        kev,
		cna:        cna,
		redhat:     redhat,
		mitre:      mitre,
		ipRep:      ipRep,
		ttls:       ttls,
		windowDays: windowDays,
	}
}

// sourceInputs collects the five enrichment inputs plus the spine.
type sourceInputs struct {
	nvd      []domain.CVERecord
	kev      *domain.KEVCatalog
	cna      []domain.CNADelta
	redhat   []domain.RedHatAdvisory
	mitre    []domain.MitreTechnique
	abuse    []domain.IPReport
	warnings []string
}

// Enrich rebuilds the merged vulnerability view from scratch. Every
// non-spine source that fails to load contributes nothing but adds a
// warning; a missing NVD base is the one hard failure.
func (e *Engine) Enrich(ctx context.Context) (*domain.EnrichmentResult, error) {
	in, err := e.loadInputs(ctx)
	if err != nil {
		telemetry.EnrichmentRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	records := e.join(in)

	telemetry.EnrichmentRuns.WithLabelValues("ok").Inc()
	return &domain.EnrichmentResult{
		GenerationID:       uuid.NewString(),
		Timestamp:          time.Now().UTC(),
		VulnerabilityCount: len(records),
		Vulnerabilities:    records,
		Warnings:           in.warnings,
	}, nil
}

// loadInputs obtains all sources concurrently and waits for every one
// to settle before joining.
func (e *Engine) loadInputs(ctx context.Context) (*sourceInputs, error) {
	in := &sourceInputs{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	var nvdErr error

	load := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				log.Printf("[ENRICH] Source %s unavailable, continuing without it: %v", name, err)
				mu.Lock()
				in.warnings = append(in.warnings, fmt.Sprintf("%s: %v", name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		recs, err := ports.FetchCached(ctx, e.store, e.nvdKey(), e.ttls.NVD, func(ctx context.Context) ([]domain.CVERecord, error) {
			return e.nvd.RecentCVEs(ctx, e.windowDays)
		})
		if err != nil {
			nvdErr = err
			return
		}
		in.nvd = recs
	}()

	load("cisa-kev", func() error {
		cat, err := ports.FetchCached(ctx, e.store, ports.KEVCatalogKey, e.ttls.KEV, func(ctx context.Context) (*domain.KEVCatalog, error) {
			return e.kev.Catalog(ctx)
		})
		if err != nil {
			return err
		}
		in.kev = cat
		return nil
	})

	load("cvelist", func() error {
		deltas, err := ports.FetchCached(ctx, e.store, "cvelist-deltas.json", e.ttls.CNA, func(ctx context.Context) ([]domain.CNADelta, error) {
			return e.cna.RecentDeltas(ctx)
		})
		if err != nil {
			return err
		}
		in.cna = deltas
		return nil
	})

	load("redhat", func() error {
		advisories, err := e.loadRedHat(ctx)
		if err != nil {
			return err
		}
		in.redhat = advisories
		return nil
	})

	load("mitre", func() error {
		techniques, err := ports.FetchCached(ctx, e.store, "mitre-attack-techniques.json", e.ttls.Mitre, func(ctx context.Context) ([]domain.MitreTechnique, error) {
			return e.mitre.Techniques(ctx)
		})
		if err != nil {
			return err
		}
		in.mitre = techniques
		return nil
	})

	load("abuseipdb", func() error {
		reports, err := ports.FetchCached(ctx, e.store, "abuseipdb-blacklist.json", e.ttls.Abuse, func(ctx context.Context) ([]domain.IPReport, error) {
			return e.ipRep.Blacklist(ctx, 90)
		})
		if err != nil {
			return err
		}
		in.abuse = reports
		return nil
	})

	wg.Wait()

	// No spine, no output.
	if nvdErr != nil {
		return nil, fmt.Errorf("nvd base data unavailable: %w", nvdErr)
	}
	return in, nil
}

// loadRedHat concatenates every cached Red Hat advisory page, then
// refreshes the primary page if nothing cached was fresh.
func (e *Engine) loadRedHat(ctx context.Context) ([]domain.RedHatAdvisory, error) {
	keys, err := e.store.Keys("redhat-advisories-*.json")
	if err != nil {
		keys = nil
	}

	var all []domain.RedHatAdvisory
	for _, key := range keys {
		payload, err := e.store.Get(key, e.ttls.RedHat)
		if err != nil || payload == nil {
			continue
		}
		var page []domain.RedHatAdvisory
		if err := json.Unmarshal(payload, &page); err != nil {
			log.Printf("[ENRICH] Skipping unreadable advisory cache %s: %v", key, err)
			continue
		}
		all = append(all, page...)
	}
	if len(all) > 0 {
		return all, nil
	}

	return ports.FetchCached(ctx, e.store, "redhat-advisories-100.json", e.ttls.RedHat, func(ctx context.Context) ([]domain.RedHatAdvisory, error) {
		return e.redhat.RecentAdvisories(ctx, 100)
	})
}

func (e *Engine) nvdKey() string {
	return fmt.Sprintf("nvd-recent-%ddays.json", e.windowDays)
}

// join performs the merge/match passes over the loaded inputs.
func (e *Engine) join(in *sourceInputs) []domain.EnrichedVulnerability {
	// Pass 1: spine map keyed by CVE ID.
	byID := make(map[string]*domain.EnrichedVulnerability, len(in.nvd))
	order := make([]string, 0, len(in.nvd))
	for _, rec := range in.nvd {
		if rec.ID == "" {
			continue
		}
		if _, dup := byID[rec.ID]; dup {
			continue
		}
		byID[rec.ID] = &domain.EnrichedVulnerability{CVERecord: rec}
		order = append(order, rec.ID)
	}

	// Pass 2: auxiliary lookup maps.
	advisoriesByCVE := make(map[string][]domain.RedHatAdvisory)
	for _, adv := range in.redhat {
		for _, cve := range adv.CVEs {
			advisoriesByCVE[cve] = append(advisoriesByCVE[cve], adv)
		}
	}

	reportsByIP := make(map[string]domain.IPReport, len(in.abuse))
	for _, rep := range in.abuse {
		reportsByIP[rep.IPAddress] = rep
	}

	// Techniques indexed by base technique ID: tactic-variants of one
	// technique collapse under one key.
	techniquesByID := make(map[string][]domain.MitreTechnique)
	for _, tech := range in.mitre {
		base := tech.TechniqueID
		if base == "" {
			base = domain.BaseTechniqueID(tech.ID)
		}
		techniquesByID[base] = append(techniquesByID[base], tech)
	}

	// Pass 3: exact-ID joins.
	if in.kev != nil {
		for i := range in.kev.Vulnerabilities {
			entry := in.kev.Vulnerabilities[i]
			if rec, ok := byID[entry.CVEID]; ok {
				rec.IsKnownExploited = true
				rec.KEVData = &entry
			}
		}
	}

	for _, delta := range in.cna {
		if rec, ok := byID[delta.CVEID]; ok {
			rec.CNAContainer = delta.CNAContainer
			rec.ADPContainers = delta.ADPContainers
		}
	}

	// Pass 4: per-record text heuristics. Matching is intentionally
	// permissive; the annotations are advisory, not ground truth.
	for _, id := range order {
		rec := byID[id]
		text := e.describe(rec)

		rec.MitreAttack = matchTechniques(text, techniquesByID)
		rec.RedHatAdvisories = advisoriesByCVE[rec.ID]
		rec.AbuseIPDBInfo = matchIPs(text, reportsByIP)
	}

	out := make([]domain.EnrichedVulnerability, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out
}

// describe concatenates every description-bearing field into one
// haystack for the text heuristics.
func (e *Engine) describe(rec *domain.EnrichedVulnerability) string {
	var b strings.Builder
	b.WriteString(rec.Description)
	if rec.KEVData != nil {
		b.WriteByte(' ')
		b.WriteString(rec.KEVData.VulnerabilityName)
		b.WriteByte(' ')
		b.WriteString(rec.KEVData.ShortDescription)
		b.WriteByte(' ')
		b.WriteString(rec.KEVData.Notes)
	}
	return b.String()
}

// matchTechniques links description text to ATT&CK techniques, first by
// explicit technique-ID mention, then by keyword lookup. Results are
// de-duplicated by composite technique ID.
func matchTechniques(text string, techniquesByID map[string][]domain.MitreTechnique) []domain.MitreTechnique {
	var out []domain.MitreTechnique
	seen := make(map[string]bool)

	appendTechniques := func(baseID string) {
		for _, tech := range techniquesByID[baseID] {
			if seen[tech.ID] {
				continue
			}
			seen[tech.ID] = true
			out = append(out, tech)
		}
	}

	for _, id := range domain.TechniqueIDPattern.FindAllString(text, -1) {
		appendTechniques(id)
	}

	lower := strings.ToLower(text)
	for keyword, ids := range domain.KeywordTechniques {
		if !strings.Contains(lower, keyword) {
			continue
		}
		for _, id := range ids {
			appendTechniques(id)
		}
	}

	return out
}

// matchIPs attaches blacklist records for every dotted-quad literal
// appearing verbatim in the description.
func matchIPs(text string, reportsByIP map[string]domain.IPReport) []domain.IPReport {
	var out []domain.IPReport
	seen := make(map[string]bool)

	for _, ip := range domain.IPv4Pattern.FindAllString(text, -1) {
		if seen[ip] {
			continue
		}
		seen[ip] = true
		if rep, ok := reportsByIP[ip]; ok {
			out = append(out, rep)
		}
	}
	return out
}
