package providers

import (
	"context"
	"fmt"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
)

const kevDefaultURL = "https://www.cisa.gov/sites/default/files/feeds/known_exploited_vulnerabilities.json"

// KEVClient fetches the CISA Known Exploited Vulnerabilities catalog.
type KEVClient struct {
	client *Client
	url    string
}

// NewKEVClient creates a KEV adapter.
func NewKEVClient(client *Client, catalogURL string) *KEVClient {
	if catalogURL == "" {
		catalogURL = kevDefaultURL
	}
	return &KEVClient{client: client, url: catalogURL}
}

// Catalog fetches and parses the full KEV catalog. A 2xx response
// without a vulnerabilities array is a malformed-shape hard failure.
func (k *KEVClient) Catalog(ctx context.Context) (*domain.KEVCatalog, error) {
	var catalog domain.KEVCatalog
	if err := k.client.GetJSON(ctx, "cisa-kev", "cisa-kev-catalog.json", k.url, nil, &catalog); err != nil {
		return nil, err
	}
	if catalog.Vulnerabilities == nil {
		return nil, &ProviderError{Provider: "cisa-kev", Err: fmt.Errorf("response lacks vulnerabilities array")}
	}
	return &catalog, nil
}
