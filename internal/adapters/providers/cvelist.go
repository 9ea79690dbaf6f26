package providers

import (
	"context"
	"fmt"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
)

const cvelistDefaultURL = "https://raw.githubusercontent.com/CVEProject/cvelistV5/main/cves/delta.json"

// CVEListClient fetches the cvelistV5 delta: the set of CVE records the
// CVE Program published or updated most recently, with their CNA/ADP
// containers.
type CVEListClient struct {
	client *Client
	url    string
}

// cvelistV5 wire shapes.
type cvelistDelta struct {
	FetchTime string         `json:"fetchTime"`
	New       []cvelistEntry `json:"new"`
	Updated   []cvelistEntry `json:"updated"`
}

type cvelistEntry struct {
	CVEID       string `json:"cveId"`
	GithubLink  string `json:"githubLink"`
	DateUpdated string `json:"dateUpdated"`
}

type cvelistRecord struct {
	CVEMetadata struct {
		CVEID string `json:"cveId"`
		State string `json:"state"`
	} `json:"cveMetadata"`
	Containers struct {
		CNA domain.CNAContainer   `json:"cna"`
		ADP []domain.CNAContainer `json:"adp"`
	} `json:"containers"`
}

// NewCVEListClient creates a cvelistV5 adapter.
func NewCVEListClient(client *Client, deltaURL string) *CVEListClient {
	if deltaURL == "" {
		deltaURL = cvelistDefaultURL
	}
	return &CVEListClient{client: client, url: deltaURL}
}

// RecentDeltas fetches the delta index and resolves each referenced
// record into its CNA/ADP containers. Individual record failures are
// skipped: the delta degrades per-entry, the index itself must parse.
func (c *CVEListClient) RecentDeltas(ctx context.Context) ([]domain.CNADelta, error) {
	var delta cvelistDelta
	if err := c.client.GetJSON(ctx, "cvelist", "cvelist-delta.json", c.url, nil, &delta); err != nil {
		return nil, err
	}
	if delta.New == nil && delta.Updated == nil {
		return nil, &ProviderError{Provider: "cvelist", Err: fmt.Errorf("delta lacks new/updated arrays")}
	}

	entries := append(delta.New, delta.Updated...)
	deltas := make([]domain.CNADelta, 0, len(entries))
	for _, e := range entries {
		if e.GithubLink == "" {
			continue
		}

		var rec cvelistRecord
		key := fmt.Sprintf("cvelist-record-%s.json", e.CVEID)
		if err := c.client.GetJSON(ctx, "cvelist", key, e.GithubLink, nil, &rec); err != nil {
			continue
		}

		deltas = append(deltas, domain.CNADelta{
			CVEID:         rec.CVEMetadata.CVEID,
			State:         rec.CVEMetadata.State,
			CNAContainer:  rec.Containers.CNA,
			ADPContainers: rec.Containers.ADP,
		})
	}
	return deltas, nil
}
