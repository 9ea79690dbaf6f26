package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
	"github.com/lcalzada-xor/threatwatch/internal/core/ports"
	"github.com/lcalzada-xor/threatwatch/internal/telemetry"
)

// ProviderError identifies which upstream failed and with what status.
type ProviderError struct {
	Provider string
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: upstream returned status %d", e.Provider, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Client is the shared HTTP plumbing for all provider adapters: one
// attempt per call, no retry, no backoff. Failures surface a
// ProviderError; the audit repository (when configured) records every
// call either way.
type Client struct {
	httpClient *http.Client
	audit      ports.FetchAuditRepository
}

// NewClient builds a provider client. audit may be nil.
func NewClient(audit ports.FetchAuditRepository) *Client {
	return &Client{
		// No client-wide timeout: apart from the NVD health ping,
		// upstream calls rely on the transport defaults.
		httpClient: &http.Client{},
		audit:      audit,
	}
}

// GetJSON performs a single GET against url and decodes the 2xx body
// into out. cacheKey is only used for audit bookkeeping.
func (c *Client) GetJSON(ctx context.Context, provider, cacheKey, url string, headers map[string]string, out interface{}) error {
	body, err := c.get(ctx, provider, cacheKey, url, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ProviderError{Provider: provider, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// GetRaw performs a single GET against url and returns the 2xx body.
func (c *Client) GetRaw(ctx context.Context, provider, cacheKey, url string, headers map[string]string) ([]byte, error) {
	return c.get(ctx, provider, cacheKey, url, headers)
}

// PostJSON performs a single JSON POST (ThreatFox-style query APIs)
// and decodes the 2xx body into out.
func (c *Client) PostJSON(ctx context.Context, provider, cacheKey, url string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &ProviderError{Provider: provider, Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &ProviderError{Provider: provider, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, status, err := c.do(provider, cacheKey, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &ProviderError{Provider: provider, Status: status, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func (c *Client) get(ctx context.Context, provider, cacheKey, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ProviderError{Provider: provider, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	body, _, err := c.do(provider, cacheKey, req)
	return body, err
}

func (c *Client) do(provider, cacheKey string, req *http.Request) ([]byte, int, error) {
	telemetry.ProviderRequests.WithLabelValues(provider).Inc()
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.ProviderErrors.WithLabelValues(provider, "transport").Inc()
		perr := &ProviderError{Provider: provider, Err: err}
		c.record(provider, cacheKey, 0, perr, time.Since(start))
		return nil, 0, perr
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		telemetry.ProviderErrors.WithLabelValues(provider, "status").Inc()
		perr := &ProviderError{Provider: provider, Status: resp.StatusCode}
		c.record(provider, cacheKey, resp.StatusCode, perr, time.Since(start))
		return nil, resp.StatusCode, perr
	}
	if readErr != nil {
		telemetry.ProviderErrors.WithLabelValues(provider, "read").Inc()
		perr := &ProviderError{Provider: provider, Status: resp.StatusCode, Err: readErr}
		c.record(provider, cacheKey, resp.StatusCode, perr, time.Since(start))
		return nil, resp.StatusCode, perr
	}

	c.record(provider, cacheKey, resp.StatusCode, nil, time.Since(start))
	return body, resp.StatusCode, nil
}

// record writes the fetch audit entry. Audit failures are logged, never
// propagated: bookkeeping must not fail a fetch.
func (c *Client) record(provider, cacheKey string, status int, fetchErr error, duration time.Duration) {
	if c.audit == nil {
		return
	}
	rec, err := domain.NewFetchRecord(provider, cacheKey, status, fetchErr, duration)
	if err != nil {
		return
	}
	if err := c.audit.SaveFetchRecord(*rec); err != nil {
		log.Printf("[AUDIT] Failed to save fetch record for %s: %v", provider, err)
	}
}
