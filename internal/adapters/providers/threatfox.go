package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
)

const threatFoxDefaultURL = "https://threatfox-api.abuse.ch/api/v1/"

// threatFoxPause is the advisory pause after each call.
const threatFoxPause = 1 * time.Second

// ThreatFoxClient fetches IOCs from abuse.ch ThreatFox. Responses carry
// differently shaped data payloads depending on the query; they are
// parsed as explicit tagged variants validated by discriminant fields,
// never by probing for characteristic keys.
type ThreatFoxClient struct {
	client *Client
	url    string
}

// threatFoxEnvelope is the common response wrapper; data is decoded per
// variant once query_status validates.
type threatFoxEnvelope struct {
	QueryStatus string          `json:"query_status"`
	Data        json.RawMessage `json:"data"`
}

type threatFoxIOC struct {
	ID              string   `json:"id"`
	IOC             string   `json:"ioc"`
	IOCType         string   `json:"ioc_type"`
	ThreatType      string   `json:"threat_type"`
	Malware         string   `json:"malware"`
	MalwarePrintable string  `json:"malware_printable"`
	ConfidenceLevel int      `json:"confidence_level"`
	FirstSeen       string   `json:"first_seen"`
	Tags            []string `json:"tags"`
}

type threatFoxMalwareStats struct {
	MalwarePrintable string `json:"malware_printable"`
	Count            json.Number `json:"count"`
}

// NewThreatFoxClient creates a ThreatFox adapter.
func NewThreatFoxClient(client *Client, apiURL string) *ThreatFoxClient {
	if apiURL == "" {
		apiURL = threatFoxDefaultURL
	}
	return &ThreatFoxClient{client: client, url: apiURL}
}

// RecentIOCs fetches indicators seen in the trailing window of days.
func (t *ThreatFoxClient) RecentIOCs(ctx context.Context, days int) ([]domain.ThreatFoxIOC, error) {
	payload := map[string]interface{}{"query": "get_iocs", "days": days}
	key := fmt.Sprintf("threatfox-iocs-%ddays.json", days)
	return t.queryIOCs(ctx, key, payload)
}

// IOCsByTag fetches indicators carrying a tag (e.g. a malware family).
func (t *ThreatFoxClient) IOCsByTag(ctx context.Context, tag string) ([]domain.ThreatFoxIOC, error) {
	payload := map[string]interface{}{"query": "taginfo", "tag": tag, "limit": 100}
	key := fmt.Sprintf("threatfox-tag-%s.json", tag)
	return t.queryIOCs(ctx, key, payload)
}

// MalwareList fetches the malware-family summary table.
func (t *ThreatFoxClient) MalwareList(ctx context.Context) ([]domain.ThreatFoxMalware, error) {
	payload := map[string]interface{}{"query": "malware_list"}

	env, err := t.query(ctx, "threatfox-malware-list.json", payload)
	if err != nil {
		return nil, err
	}

	// Malware-list variant: data is an object keyed by family name.
	var families map[string]threatFoxMalwareStats
	if err := json.Unmarshal(env.Data, &families); err != nil {
		return nil, &ProviderError{Provider: "threatfox", Err: fmt.Errorf("data is not a malware-list object: %w", err)}
	}

	out := make([]domain.ThreatFoxMalware, 0, len(families))
	for name, stats := range families {
		count, _ := strconv.Atoi(stats.Count.String())
		out = append(out, domain.ThreatFoxMalware{
			Name:      name,
			Printable: stats.MalwarePrintable,
			IOCCount:  count,
		})
	}
	return out, nil
}

func (t *ThreatFoxClient) queryIOCs(ctx context.Context, key string, payload map[string]interface{}) ([]domain.ThreatFoxIOC, error) {
	env, err := t.query(ctx, key, payload)
	if err != nil {
		return nil, err
	}

	// IOC-list variant: data is an array of IOC rows.
	var iocs []threatFoxIOC
	if err := json.Unmarshal(env.Data, &iocs); err != nil {
		return nil, &ProviderError{Provider: "threatfox", Err: fmt.Errorf("data is not an ioc array: %w", err)}
	}

	out := make([]domain.ThreatFoxIOC, 0, len(iocs))
	for _, i := range iocs {
		if i.IOC == "" {
			continue
		}
		out = append(out, domain.ThreatFoxIOC{
			ID:              i.ID,
			IOC:             i.IOC,
			IOCType:         i.IOCType,
			ThreatType:      i.ThreatType,
			Malware:         i.Malware,
			MalwarePrintable: i.MalwarePrintable,
			ConfidenceLevel: i.ConfidenceLevel,
			FirstSeen:       i.FirstSeen,
			Tags:            i.Tags,
		})
	}
	return out, nil
}

func (t *ThreatFoxClient) query(ctx context.Context, key string, payload map[string]interface{}) (*threatFoxEnvelope, error) {
	var env threatFoxEnvelope
	if err := t.client.PostJSON(ctx, "threatfox", key, t.url, payload, &env); err != nil {
		return nil, err
	}

	// query_status is the discriminant: "ok" or "no_result" are the only
	// shapes this adapter accepts.
	switch env.QueryStatus {
	case "ok":
	case "no_result":
		env.Data = json.RawMessage("null")
	default:
		return nil, &ProviderError{Provider: "threatfox", Err: fmt.Errorf("query_status %q", env.QueryStatus)}
	}

	time.Sleep(threatFoxPause)

	return &env, nil
}
