package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
)

const vulnersDefaultBaseURL = "https://vulners.com/api/v3"

// VulnersClient is the secondary CVE source. Its native shape is
// normalized into the same domain.CVERecord the NVD adapter produces,
// so downstream consumers only ever see one schema.
type VulnersClient struct {
	client  *Client
	baseURL string
	apiKey  string
}

// Vulners wire shapes.
type vulnersResponse struct {
	Result string `json:"result"`
	Data   struct {
		Documents map[string]vulnersDocument `json:"documents"`
	} `json:"data"`
}

type vulnersDocument struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Published   string   `json:"published"`
	Modified    string   `json:"modified"`
	CVSS3       struct {
		CVSSV3 struct {
			BaseScore    float64 `json:"baseScore"`
			BaseSeverity string  `json:"baseSeverity"`
			VectorString string  `json:"vectorString"`
		} `json:"cvssV3"`
	} `json:"cvss3"`
	CWE        []string `json:"cwe"`
	References []string `json:"references"`
}

// NewVulnersClient creates a Vulners adapter.
func NewVulnersClient(client *Client, baseURL, apiKey string) *VulnersClient {
	if baseURL == "" {
		baseURL = vulnersDefaultBaseURL
	}
	return &VulnersClient{client: client, baseURL: baseURL, apiKey: apiKey}
}

// CVEByID looks a CVE up by identifier and maps the Vulners document
// into the normalized NVD-compatible record shape: description becomes
// the description text, cvss3 becomes a synthesized 3.1 metric, cwe
// entries become weaknesses, references become reference objects.
func (v *VulnersClient) CVEByID(ctx context.Context, cveID string) (*domain.CVERecord, error) {
	payload := map[string]interface{}{
		"id":     cveID,
		"apiKey": v.apiKey,
	}

	var resp vulnersResponse
	key := fmt.Sprintf("vulners-cve-%s.json", cveID)
	if err := v.client.PostJSON(ctx, "vulners", key, v.baseURL+"/search/id/", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Result != "OK" {
		return nil, &ProviderError{Provider: "vulners", Err: fmt.Errorf("result %q for %s", resp.Result, cveID)}
	}

	doc, ok := resp.Data.Documents[cveID]
	if !ok || doc.ID == "" {
		return nil, &ProviderError{Provider: "vulners", Err: fmt.Errorf("no document for %s", cveID)}
	}

	rec := &domain.CVERecord{
		ID:          strings.ToUpper(doc.ID),
		Description: doc.Description,
	}
	if rec.Description == "" {
		rec.Description = doc.Title
	}

	rec.Published, _ = time.Parse(time.RFC3339, doc.Published)
	rec.LastModified, _ = time.Parse(time.RFC3339, doc.Modified)

	if doc.CVSS3.CVSSV3.BaseScore > 0 {
		rec.Metrics = append(rec.Metrics, domain.CVSSMetric{
			Version:  "3.1",
			Source:   "vulners",
			Score:    doc.CVSS3.CVSSV3.BaseScore,
			Severity: doc.CVSS3.CVSSV3.BaseSeverity,
			Vector:   doc.CVSS3.CVSSV3.VectorString,
		})
	}

	for _, cwe := range doc.CWE {
		rec.Weaknesses = append(rec.Weaknesses, domain.Weakness{Source: "vulners", CWEID: cwe})
	}
	for _, ref := range doc.References {
		rec.References = append(rec.References, domain.Reference{URL: ref, Source: "vulners"})
	}

	return rec, nil
}
