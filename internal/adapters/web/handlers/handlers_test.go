package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
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

type stubResolver struct {
	record *domain.CVERecord
	err    error
}

func (s *stubResolver) GetCVE(ctx context.Context, id string) (*domain.CVERecord, error) {
	return s.record, s.err
}

type stubKEVSource struct {
	catalog *domain.KEVCatalog
	err     error
}

func (s *stubKEVSource) Catalog(ctx context.Context) (*domain.KEVCatalog, error) {
	return s.catalog, s.err
}

func TestCVEHandler_RejectsMalformedID(t *testing.T) {
	h := NewCVEHandler(&stubResolver{})

	req := httptest.NewRequest(http.MethodGet, "/api/cve/garbage", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "garbage"})
	rr := httptest.NewRecorder()

	h.HandleGetCVE(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "invalid CVE identifier", body.Error)
	assert.Empty(t, body.Details)
}

func TestCVEHandler_LowercaseIDNormalized(t *testing.T) {
	resolver := &stubResolver{record: &domain.CVERecord{ID: "CVE-2021-44228"}}
	h := NewCVEHandler(resolver)

	req := httptest.NewRequest(http.MethodGet, "/api/cve/cve-2021-44228", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "cve-2021-44228"})
	rr := httptest.NewRecorder()

	h.HandleGetCVE(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var rec domain.CVERecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, "CVE-2021-44228", rec.ID)
}

func TestCVEHandler_LookupFailureCarriesDetails(t *testing.T) {
	h := NewCVEHandler(&stubResolver{err: errors.New("nvd: 503, vulners: 401")})

	req := httptest.NewRequest(http.MethodGet, "/api/cve/CVE-2024-0001", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "CVE-2024-0001"})
	rr := httptest.NewRecorder()

	h.HandleGetCVE(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "cve lookup failed", body.Error)
	require.Len(t, body.Details, 1)
	assert.Contains(t, body.Details[0], "vulners")
}

func TestKEVHandler_UrgencyBuckets(t *testing.T) {
	today := time.Now()
	source := &stubKEVSource{catalog: &domain.KEVCatalog{
		Vulnerabilities: []domain.KEVEntry{
			{CVEID: "CVE-2024-0001", DueDate: today.AddDate(0, 0, 2).Format("2006-01-02")},
			{CVEID: "CVE-2024-0002", DueDate: today.AddDate(0, 0, 20).Format("2006-01-02")},
			{CVEID: "CVE-2024-0003", DueDate: today.AddDate(0, 1, 15).Format("2006-01-02")},
			{CVEID: "CVE-2024-0004"},
		},
	}}
	h := NewKEVHandler(source, newMemStore(), time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/kev/urgency", nil)
	rr := httptest.NewRecorder()

	h.HandleUrgency(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var buckets map[string][]domain.KEVEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &buckets))

	assert.Len(t, buckets[domain.UrgencyUrgent], 1)
	assert.Len(t, buckets[domain.UrgencyUpcoming], 1)
	assert.Len(t, buckets[domain.UrgencyLater], 1)
	assert.Len(t, buckets[domain.UrgencyUnknown], 1)
}

func TestKEVHandler_CatalogCachedAcrossRequests(t *testing.T) {
	source := &stubKEVSource{catalog: &domain.KEVCatalog{
		Vulnerabilities: []domain.KEVEntry{{CVEID: "CVE-2024-0001"}},
	}}
	h := NewKEVHandler(source, newMemStore(), time.Hour)

	rr := httptest.NewRecorder()
	h.HandleCatalog(rr, httptest.NewRequest(http.MethodGet, "/api/kev", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	// Upstream breaks; the cached catalog keeps serving.
	source.catalog = nil
	source.err = errors.New("cisa down")

	rr = httptest.NewRecorder()
	h.HandleCatalog(rr, httptest.NewRequest(http.MethodGet, "/api/kev", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCacheHandler_ClearByPattern(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Put("nvd-cve-CVE-2024-0001.json", json.RawMessage(`{}`)))
	require.NoError(t, store.Put("nvd-cve-CVE-2024-0002.json", json.RawMessage(`{}`)))
	require.NoError(t, store.Put("cisa-kev-catalog.json", json.RawMessage(`{}`)))

	h := NewCacheHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/api/cache/clear?pattern=nvd-cve-*.json", nil)
	rr := httptest.NewRecorder()
	h.HandleClear(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp["cleared"])

	remaining, err := store.Keys("*")
	require.NoError(t, err)
	assert.Equal(t, []string{"cisa-kev-catalog.json"}, remaining)
}

func TestCacheHandler_ClearRequiresPost(t *testing.T) {
	h := NewCacheHandler(newMemStore())

	req := httptest.NewRequest(http.MethodGet, "/api/cache/clear", nil)
	rr := httptest.NewRecorder()
	h.HandleClear(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
