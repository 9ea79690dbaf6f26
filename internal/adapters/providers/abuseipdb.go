package providers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
	"github.com/lcalzada-xor/threatwatch/internal/core/ports"
)

const abuseIPDBDefaultBaseURL = "https://api.abuseipdb.com/api/v2"

// abuseIPDBPause is the advisory pause after each call; the daily quota
// on the free tier is tight and bursts trip it early.
const abuseIPDBPause = 1500 * time.Millisecond

// ErrRateLimited signals the local call budget denied an upstream call
// before it was attempted. No upstream call is made, no retry follows.
var ErrRateLimited = errors.New("local rate budget exhausted")

// AbuseIPDBClient fetches malicious-IP intelligence. Blacklist pulls are
// expensive quota-wise, so every one is checked against the persisted
// 24-hour call budget first.
type AbuseIPDBClient struct {
	client  *Client
	limiter ports.RateLimiter
	baseURL string
	apiKey  string
}

// AbuseIPDB wire shapes.
type abuseBlacklistResponse struct {
	Data []abuseIPData `json:"data"`
}

type abuseCheckResponse struct {
	Data *abuseIPData `json:"data"`
}

type abuseIPData struct {
	IPAddress            string `json:"ipAddress"`
	AbuseConfidenceScore int    `json:"abuseConfidenceScore"`
	CountryCode          string `json:"countryCode"`
	ISP                  string `json:"isp"`
	Domain               string `json:"domain"`
	UsageType            string `json:"usageType"`
	TotalReports         int    `json:"totalReports"`
	LastReportedAt       string `json:"lastReportedAt"`
}

// NewAbuseIPDBClient creates an AbuseIPDB adapter.
func NewAbuseIPDBClient(client *Client, limiter ports.RateLimiter, baseURL, apiKey string) *AbuseIPDBClient {
	if baseURL == "" {
		baseURL = abuseIPDBDefaultBaseURL
	}
	return &AbuseIPDBClient{client: client, limiter: limiter, baseURL: baseURL, apiKey: apiKey}
}

// Blacklist fetches addresses at or above confidenceMin. The call is
// denied locally with ErrRateLimited when the 24h budget is spent.
func (a *AbuseIPDBClient) Blacklist(ctx context.Context, confidenceMin int) ([]domain.IPReport, error) {
	if !a.limiter.IsAllowed("abuseipdb") {
		return nil, fmt.Errorf("abuseipdb blacklist: %w", ErrRateLimited)
	}

	q := url.Values{}
	q.Set("confidenceMinimum", fmt.Sprintf("%d", confidenceMin))

	var resp abuseBlacklistResponse
	key := fmt.Sprintf("abuseipdb-blacklist-%d.json", confidenceMin)
	err := a.client.GetJSON(ctx, "abuseipdb", key, a.baseURL+"/blacklist?"+q.Encode(), a.headers(), &resp)
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, &ProviderError{Provider: "abuseipdb", Err: fmt.Errorf("response lacks data array")}
	}

	// One successful upstream call, one budget increment. The data is
	// already fetched; a bookkeeping failure must not discard it.
	if err := a.limiter.Increment("abuseipdb"); err != nil {
		log.Printf("[ABUSEIPDB] Failed to record budget increment: %v", err)
	}

	reports := make([]domain.IPReport, 0, len(resp.Data))
	for _, d := range resp.Data {
		reports = append(reports, mapAbuseIPData(d))
	}

	time.Sleep(abuseIPDBPause)

	return reports, nil
}

// CheckIP looks up a single address. Single-IP checks are cheap enough
// that they bypass the blacklist budget.
func (a *AbuseIPDBClient) CheckIP(ctx context.Context, address string) (*domain.IPReport, error) {
	q := url.Values{}
	q.Set("ipAddress", address)
	q.Set("maxAgeInDays", "90")

	var resp abuseCheckResponse
	key := fmt.Sprintf("abuseipdb-ip-%s.json", address)
	err := a.client.GetJSON(ctx, "abuseipdb", key, a.baseURL+"/check?"+q.Encode(), a.headers(), &resp)
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, &ProviderError{Provider: "abuseipdb", Err: fmt.Errorf("response lacks data object")}
	}

	report := mapAbuseIPData(*resp.Data)

	time.Sleep(abuseIPDBPause)

	return &report, nil
}

func (a *AbuseIPDBClient) headers() map[string]string {
	return map[string]string{"Key": a.apiKey}
}

func mapAbuseIPData(d abuseIPData) domain.IPReport {
	return domain.IPReport{
		IPAddress:            d.IPAddress,
		AbuseConfidenceScore: d.AbuseConfidenceScore,
		CountryCode:          d.CountryCode,
		ISP:                  d.ISP,
		Domain:               d.Domain,
		UsageType:            d.UsageType,
		TotalReports:         d.TotalReports,
		LastReportedAt:       d.LastReportedAt,
	}
}
