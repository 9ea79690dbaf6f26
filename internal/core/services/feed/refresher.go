package feed

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
	"github.com/lcalzada-xor/threatwatch/internal/core/ports"
)

// Broadcaster pushes refresh notifications to connected dashboard
// clients.
type Broadcaster interface {
	BroadcastRefresh(generationID string, vulnerabilityCount int, warnings []string)
}

// Refresher periodically rebuilds the enriched view and notifies
// clients. Each tick is an independent full run; failures are logged
// and the previous result stays current.
type Refresher struct {
	enricher    ports.Enricher
	broadcaster Broadcaster
	interval    time.Duration

	mu     sync.RWMutex
	latest *domain.EnrichmentResult
}

// NewRefresher creates a refresher. broadcaster may be nil.
func NewRefresher(enricher ports.Enricher, broadcaster Broadcaster, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Refresher{enricher: enricher, broadcaster: broadcaster, interval: interval}
}

// Run refreshes until ctx is cancelled. The first refresh happens
// immediately so the dashboard has data at startup.
func (r *Refresher) Run(ctx context.Context) {
	r.refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

// Latest returns the most recent successful result, or nil before the
// first completed run.
func (r *Refresher) Latest() *domain.EnrichmentResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

func (r *Refresher) refresh(ctx context.Context) {
	result, err := r.enricher.Enrich(ctx)
	if err != nil {
		log.Printf("[FEED] Enrichment refresh failed: %v", err)
		return
	}

	r.mu.Lock()
	r.latest = result
	r.mu.Unlock()

	log.Printf("[FEED] Refreshed enriched view: %d vulnerabilities, %d warnings",
		result.VulnerabilityCount, len(result.Warnings))

	if r.broadcaster != nil {
		r.broadcaster.BroadcastRefresh(result.GenerationID, result.VulnerabilityCount, result.Warnings)
	}
}
