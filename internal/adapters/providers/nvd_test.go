package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestNVDClient(t *testing.T, handler http.HandlerFunc) *NVDClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	n := NewNVDClient(NewClient(nil), server.URL, "")
	n.pacer = rate.NewLimiter(rate.Inf, 1)
	return n
}

func nvdVuln(id string) map[string]interface{} {
	return map[string]interface{}{
		"cve": map[string]interface{}{
			"id":        id,
			"published": "2024-06-01T10:00:00.000",
			"descriptions": []map[string]string{
				{"lang": "en", "value": "description of " + id},
			},
		},
	}
}

func TestNVDClient_RecentCVEsPagination(t *testing.T) {
	var requestedIndexes []string
	n := newTestNVDClient(t, func(w http.ResponseWriter, r *http.Request) {
		startIndex := r.URL.Query().Get("startIndex")
		requestedIndexes = append(requestedIndexes, startIndex)
		assert.Equal(t, "2000", r.URL.Query().Get("resultsPerPage"))

		resp := map[string]interface{}{
			"totalResults":    2001,
			"vulnerabilities": []interface{}{},
		}
		if startIndex == "0" {
			resp["vulnerabilities"] = []interface{}{nvdVuln("CVE-2024-0001"), nvdVuln("CVE-2024-0002")}
		} else {
			resp["vulnerabilities"] = []interface{}{nvdVuln("CVE-2024-0003")}
		}
		json.NewEncoder(w).Encode(resp)
	})

	records, err := n.RecentCVEs(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "2000"}, requestedIndexes)
	require.Len(t, records, 3)
	assert.Equal(t, "CVE-2024-0001", records[0].ID)
	assert.Equal(t, "description of CVE-2024-0001", records[0].Description)
	assert.Equal(t, "CVE-2024-0003", records[2].ID)
}

func TestNVDClient_EmptyResultUsesFallbackSet(t *testing.T) {
	n := newTestNVDClient(t, func(w http.ResponseWriter, r *http.Request) {
		if cveID := r.URL.Query().Get("cveId"); cveID != "" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"totalResults":    1,
				"vulnerabilities": []interface{}{nvdVuln(cveID)},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"totalResults":    0,
			"vulnerabilities": []interface{}{},
		})
	})

	records, err := n.RecentCVEs(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, records, len(fallbackCVEIDs))
	assert.Equal(t, fallbackCVEIDs[0], records[0].ID)
}

func TestNVDClient_MissingVulnerabilitiesArrayIsError(t *testing.T) {
	n := newTestNVDClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"totalResults": 10}`)
	})

	_, err := n.RecentCVEs(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vulnerabilities array")
}

func TestNVDClient_CVEByIDMissingCVEObjectIsError(t *testing.T) {
	n := newTestNVDClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"totalResults": 0, "vulnerabilities": []}`)
	})

	_, err := n.CVEByID(context.Background(), "CVE-2024-0001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lacks a cve object")
}

func TestNVDClient_UpstreamStatusSurfacesAsProviderError(t *testing.T) {
	n := newTestNVDClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := n.CVEByID(context.Background(), "CVE-2024-0001")
	require.Error(t, err)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "nvd", perr.Provider)
	assert.Equal(t, http.StatusServiceUnavailable, perr.Status)
}

func TestNVDClient_Ping(t *testing.T) {
	n := newTestNVDClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("resultsPerPage"))
		fmt.Fprint(w, `{"totalResults": 1, "vulnerabilities": []}`)
	})

	assert.NoError(t, n.Ping(context.Background()))
}

func TestNVDClient_APIKeyHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("apiKey"))
		fmt.Fprint(w, `{"totalResults": 0, "vulnerabilities": []}`)
	}))
	defer server.Close()

	n := NewNVDClient(NewClient(nil), server.URL, "secret")
	n.pacer = rate.NewLimiter(rate.Inf, 1)

	require.NoError(t, n.Ping(context.Background()))
}
