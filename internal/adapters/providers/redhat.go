package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
)

const redhatDefaultBaseURL = "https://access.redhat.com/hydra/rest/securitydata"

// redhatPause is the advisory pause after each Red Hat call. Hydra has
// no hard published limit; the pause keeps sequential page fetches polite.
const redhatPause = 500 * time.Millisecond

// RedHatClient fetches security advisories from the Red Hat Hydra API.
type RedHatClient struct {
	client  *Client
	baseURL string
}

// Hydra wire shape for /csaf.json list responses.
type redhatAdvisory struct {
	RHSA            string   `json:"RHSA"`
	Severity        string   `json:"severity"`
	ReleasedOn      string   `json:"released_on"`
	CVEs            []string `json:"CVEs"`
	BugzillaDescriptions []string `json:"bugzillas,omitempty"`
	Synopsis        string   `json:"synopsis"`
	AffectedProducts []string `json:"released_packages"`
	ResourceURL     string   `json:"resource_url"`
}

// NewRedHatClient creates a Red Hat advisory adapter.
func NewRedHatClient(client *Client, baseURL string) *RedHatClient {
	if baseURL == "" {
		baseURL = redhatDefaultBaseURL
	}
	return &RedHatClient{client: client, baseURL: baseURL}
}

// RecentAdvisories fetches the most recent advisories, newest first.
func (r *RedHatClient) RecentAdvisories(ctx context.Context, perPage int) ([]domain.RedHatAdvisory, error) {
	if perPage <= 0 {
		perPage = 100
	}

	q := url.Values{}
	q.Set("per_page", fmt.Sprintf("%d", perPage))

	var advisories []redhatAdvisory
	key := fmt.Sprintf("redhat-advisories-%d.json", perPage)
	if err := r.client.GetJSON(ctx, "redhat", key, r.baseURL+"/csaf.json?"+q.Encode(), nil, &advisories); err != nil {
		return nil, err
	}

	out := make([]domain.RedHatAdvisory, 0, len(advisories))
	for _, a := range advisories {
		if a.RHSA == "" {
			continue
		}
		out = append(out, domain.RedHatAdvisory{
			AdvisoryID:       a.RHSA,
			Synopsis:         a.Synopsis,
			Severity:         a.Severity,
			PublicDate:       a.ReleasedOn,
			CVEs:             a.CVEs,
			AffectedProducts: a.AffectedProducts,
			URL:              a.ResourceURL,
		})
	}

	// Advisory pacing before the caller's next request.
	time.Sleep(redhatPause)

	return out, nil
}
