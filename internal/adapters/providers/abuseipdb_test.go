package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLimiter tracks budget interactions without touching disk.
type stubLimiter struct {
	allowed      bool
	increments   int
	incrementErr error
}

func (l *stubLimiter) IsAllowed(providerID string) bool { return l.allowed }

func (l *stubLimiter) Increment(providerID string) error {
	l.increments++
	return l.incrementErr
}

func newTestAbuseClient(t *testing.T, limiter *stubLimiter, handler http.HandlerFunc) *AbuseIPDBClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewAbuseIPDBClient(NewClient(nil), limiter, server.URL, "test-key")
}

func TestAbuseIPDBClient_BlacklistDeniedLocally(t *testing.T) {
	limiter := &stubLimiter{allowed: false}
	upstreamCalled := false
	a := newTestAbuseClient(t, limiter, func(w http.ResponseWriter, r *http.Request) {
		upstreamCalled = true
	})

	_, err := a.Blacklist(context.Background(), 90)
	require.ErrorIs(t, err, ErrRateLimited)
	assert.False(t, upstreamCalled, "denied calls must never reach upstream")
	assert.Zero(t, limiter.increments)
}

func TestAbuseIPDBClient_BlacklistCountsOneCall(t *testing.T) {
	limiter := &stubLimiter{allowed: true}
	a := newTestAbuseClient(t, limiter, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Key"))
		assert.Equal(t, "90", r.URL.Query().Get("confidenceMinimum"))
		fmt.Fprint(w, `{"data": [{"ipAddress": "203.0.113.7", "abuseConfidenceScore": 100}]}`)
	})

	reports, err := a.Blacklist(context.Background(), 90)
	require.NoError(t, err)

	require.Len(t, reports, 1)
	assert.Equal(t, "203.0.113.7", reports[0].IPAddress)
	assert.Equal(t, 1, limiter.increments)
}

func TestAbuseIPDBClient_IncrementFailureKeepsFetchedReports(t *testing.T) {
	limiter := &stubLimiter{allowed: true, incrementErr: fmt.Errorf("disk full")}
	a := newTestAbuseClient(t, limiter, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [{"ipAddress": "203.0.113.7", "abuseConfidenceScore": 100}]}`)
	})

	reports, err := a.Blacklist(context.Background(), 90)
	require.NoError(t, err, "bookkeeping failure must not discard fetched data")
	require.Len(t, reports, 1)
	assert.Equal(t, "203.0.113.7", reports[0].IPAddress)
}

func TestAbuseIPDBClient_FailedBlacklistDoesNotSpendBudget(t *testing.T) {
	limiter := &stubLimiter{allowed: true}
	a := newTestAbuseClient(t, limiter, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := a.Blacklist(context.Background(), 90)
	require.Error(t, err)
	assert.Zero(t, limiter.increments, "only successful upstream calls count")
}

func TestAbuseIPDBClient_CheckIPBypassesBudget(t *testing.T) {
	limiter := &stubLimiter{allowed: false}
	a := newTestAbuseClient(t, limiter, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "203.0.113.7", r.URL.Query().Get("ipAddress"))
		fmt.Fprint(w, `{"data": {"ipAddress": "203.0.113.7", "abuseConfidenceScore": 42, "countryCode": "NL"}}`)
	})

	report, err := a.CheckIP(context.Background(), "203.0.113.7")
	require.NoError(t, err)

	assert.Equal(t, 42, report.AbuseConfidenceScore)
	assert.Equal(t, "NL", report.CountryCode)
	assert.Zero(t, limiter.increments)
}
