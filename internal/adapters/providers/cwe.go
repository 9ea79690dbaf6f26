package providers

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
)

const cweDefaultBaseURL = "https://cwe-api.mitre.org/api/v1"

// CWEClient fetches weakness class details from the MITRE CWE API.
// Upstream failures for entries in the embedded top-25 table degrade to
// the embedded answer instead of an error.
type CWEClient struct {
	client  *Client
	baseURL string
}

type cweResponse struct {
	Weaknesses []struct {
		ID          string `json:"ID"`
		Name        string `json:"Name"`
		Description string `json:"Description"`
	} `json:"Weaknesses"`
}

// NewCWEClient creates a CWE adapter.
func NewCWEClient(client *Client, baseURL string) *CWEClient {
	if baseURL == "" {
		baseURL = cweDefaultBaseURL
	}
	return &CWEClient{client: client, baseURL: baseURL}
}

// CWEByID resolves one weakness class. cweID accepts "CWE-79" or "79".
func (c *CWEClient) CWEByID(ctx context.Context, cweID string) (*domain.CWEEntry, error) {
	numeric := strings.TrimPrefix(strings.ToUpper(cweID), "CWE-")
	canonical := "CWE-" + numeric

	var resp cweResponse
	key := fmt.Sprintf("cwe-%s.json", numeric)
	err := c.client.GetJSON(ctx, "cwe", key, fmt.Sprintf("%s/cwe/weakness/%s", c.baseURL, numeric), nil, &resp)
	if err == nil && len(resp.Weaknesses) > 0 {
		w := resp.Weaknesses[0]
		entry := &domain.CWEEntry{
			ID:          canonical,
			Name:        w.Name,
			Description: w.Description,
		}
		if embedded, ok := domain.TopCWEs[canonical]; ok {
			entry.Rank = embedded.Rank
		}
		return entry, nil
	}

	if embedded, ok := domain.TopCWEs[canonical]; ok {
		log.Printf("[CWE] Upstream lookup of %s failed, serving embedded entry: %v", canonical, err)
		return &embedded, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, &ProviderError{Provider: "cwe", Err: fmt.Errorf("no weakness returned for %s", canonical)}
}
