package trends

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
)

type memStore struct {
	mu      sync.Mutex
	entries map[string]json.RawMessage
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]json.RawMessage)}
}

func (s *memStore) Get(key string, ttl time.Duration) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[key], nil
}

func (s *memStore) Put(key string, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = payload
	return nil
}

func (s *memStore) Clear(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *memStore) Keys(pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.entries {
		if ok, _ := filepath.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func put(t *testing.T, store *memStore, key string, v interface{}) {
	t.Helper()
	payload, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, store.Put(key, payload))
}

// fixedNow pins the aggregator clock so bucket labels are stable.
var fixedNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func newTestAggregator(store *memStore) *Aggregator {
	agg := NewAggregator(store)
	agg.now = func() time.Time { return fixedNow }
	return agg
}

func TestAggregator_EmptyCacheYieldsThirtyZeroPoints(t *testing.T) {
	agg := newTestAggregator(newMemStore())

	points, err := agg.Trends(context.Background())
	require.NoError(t, err)
	require.Len(t, points, domain.TrendWindowDays)

	assert.Equal(t, "Feb 14", points[0].Date)
	assert.Equal(t, "Mar 15", points[len(points)-1].Date)
	for _, p := range points {
		assert.Zero(t, p.CVEs)
		assert.Zero(t, p.Exploits)
	}
}

func TestAggregator_CountsCVEsByPublishedDay(t *testing.T) {
	store := newMemStore()
	put(t, store, "nvd-cve-CVE-2026-0001.json", domain.CVERecord{
		ID:        "CVE-2026-0001",
		Published: fixedNow.AddDate(0, 0, -1),
	})
	put(t, store, "nvd-recent-7days.json", []domain.CVERecord{
		{ID: "CVE-2026-0002", Published: fixedNow.AddDate(0, 0, -1)},
		{ID: "CVE-2026-0003", Published: fixedNow},
	})

	points, err := newTestAggregator(store).Trends(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, points[len(points)-2].CVEs, "Mar 14 bucket")
	assert.Equal(t, 1, points[len(points)-1].CVEs, "Mar 15 bucket")
}

func TestAggregator_CountsKEVByDateAdded(t *testing.T) {
	store := newMemStore()
	put(t, store, "cisa-kev-catalog.json", domain.KEVCatalog{
		Vulnerabilities: []domain.KEVEntry{
			{CVEID: "CVE-2026-0001", DateAdded: "2026-03-10"},
			{CVEID: "CVE-2026-0002", DateAdded: "2026-03-10"},
			{CVEID: "CVE-2026-0003", DateAdded: "not-a-date"},
		},
	})

	points, err := newTestAggregator(store).Trends(context.Background())
	require.NoError(t, err)

	var mar10 domain.ThreatTrendPoint
	for _, p := range points {
		if p.Date == "Mar 10" {
			mar10 = p
		}
	}
	assert.Equal(t, 2, mar10.Exploits)
	assert.Zero(t, mar10.CVEs)
}

func TestAggregator_StaleSecondKEVCopyIsNotCounted(t *testing.T) {
	store := newMemStore()
	catalog := domain.KEVCatalog{
		Vulnerabilities: []domain.KEVEntry{
			{CVEID: "CVE-2026-0001", DateAdded: "2026-03-10"},
		},
	}
	put(t, store, "cisa-kev-catalog.json", catalog)
	put(t, store, "cisa-kev-7days.json", catalog)

	points, err := newTestAggregator(store).Trends(context.Background())
	require.NoError(t, err)

	total := 0
	for _, p := range points {
		total += p.Exploits
	}
	assert.Equal(t, 1, total)
}

func TestAggregator_SameCVEInSingleAndListCountsOnce(t *testing.T) {
	store := newMemStore()
	published := fixedNow.AddDate(0, 0, -1)
	put(t, store, "nvd-cve-CVE-2026-0001.json", domain.CVERecord{
		ID:        "CVE-2026-0001",
		Published: published,
	})
	put(t, store, "nvd-recent-7days.json", []domain.CVERecord{
		{ID: "CVE-2026-0001", Published: published},
		{ID: "CVE-2026-0002", Published: published},
	})
	put(t, store, "nvd-recent-30days.json", []domain.CVERecord{
		{ID: "CVE-2026-0002", Published: published},
	})

	points, err := newTestAggregator(store).Trends(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, points[len(points)-2].CVEs, "Mar 14 bucket")
}

func TestAggregator_OutOfWindowDatesAreSilentlyDropped(t *testing.T) {
	store := newMemStore()
	put(t, store, "nvd-recent-30days.json", []domain.CVERecord{
		{ID: "CVE-2026-0001", Published: fixedNow.AddDate(0, 0, -40)},
		{ID: "CVE-2026-0002", Published: fixedNow.AddDate(0, 0, 3)},
		{ID: "CVE-2026-0003"}, // zero Published
	})

	points, err := newTestAggregator(store).Trends(context.Background())
	require.NoError(t, err)

	for _, p := range points {
		assert.Zero(t, p.CVEs, "bucket %s", p.Date)
	}
}

func TestAggregator_UnreadableEntriesAreSkipped(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Put("nvd-cve-CVE-2026-0001.json", json.RawMessage("{broken")))
	put(t, store, "nvd-cve-CVE-2026-0002.json", domain.CVERecord{
		ID:        "CVE-2026-0002",
		Published: fixedNow,
	})

	points, err := newTestAggregator(store).Trends(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, points[len(points)-1].CVEs)
}
