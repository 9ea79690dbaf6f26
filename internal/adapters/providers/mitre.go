package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/lcalzada-xor/threatwatch/internal/core/domain"
)

const mitreDefaultURL = "https://raw.githubusercontent.com/mitre/cti/master/enterprise-attack/enterprise-attack.json"

// MitreClient fetches the enterprise ATT&CK STIX bundle and flattens it
// into per-tactic technique rows.
type MitreClient struct {
	client *Client
	url    string
}

// STIX wire shapes, reduced to the fields this adapter reads.
type stixBundle struct {
	Type    string       `json:"type"`
	Objects []stixObject `json:"objects"`
}

type stixObject struct {
	Type               string   `json:"type"`
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	Revoked            bool     `json:"revoked"`
	XMitreDeprecated   bool     `json:"x_mitre_deprecated"`
	XMitrePlatforms    []string `json:"x_mitre_platforms"`
	XMitreDataSources  []string `json:"x_mitre_data_sources"`
	KillChainPhases    []struct {
		KillChainName string `json:"kill_chain_name"`
		PhaseName     string `json:"phase_name"`
	} `json:"kill_chain_phases"`
	ExternalReferences []struct {
		SourceName string `json:"source_name"`
		ExternalID string `json:"external_id"`
	} `json:"external_references"`
}

// NewMitreClient creates an ATT&CK adapter.
func NewMitreClient(client *Client, bundleURL string) *MitreClient {
	if bundleURL == "" {
		bundleURL = mitreDefaultURL
	}
	return &MitreClient{client: client, url: bundleURL}
}

// Techniques fetches the STIX bundle and returns one row per
// technique/tactic pair: a technique with N kill-chain phases yields N
// rows sharing the external technique ID but with distinct composite IDs.
func (m *MitreClient) Techniques(ctx context.Context) ([]domain.MitreTechnique, error) {
	var bundle stixBundle
	if err := m.client.GetJSON(ctx, "mitre", "mitre-attack-enterprise.json", m.url, nil, &bundle); err != nil {
		return nil, err
	}
	if bundle.Type != "bundle" || bundle.Objects == nil {
		return nil, &ProviderError{Provider: "mitre", Err: fmt.Errorf("response is not a STIX bundle")}
	}

	var techniques []domain.MitreTechnique
	for _, obj := range bundle.Objects {
		if obj.Type != "attack-pattern" || obj.Revoked || obj.XMitreDeprecated {
			continue
		}

		externalID := ""
		for _, ref := range obj.ExternalReferences {
			if ref.SourceName == "mitre-attack" && ref.ExternalID != "" {
				externalID = ref.ExternalID
				break
			}
		}
		if externalID == "" {
			continue
		}

		for _, phase := range obj.KillChainPhases {
			if phase.KillChainName != "mitre-attack" {
				continue
			}
			tactic := strings.ToLower(phase.PhaseName)
			techniques = append(techniques, domain.MitreTechnique{
				ID:          fmt.Sprintf("%s-%s", externalID, tactic),
				TechniqueID: externalID,
				Name:        obj.Name,
				Description: obj.Description,
				Tactic:      tactic,
				Platforms:   obj.XMitrePlatforms,
				DataSources: obj.XMitreDataSources,
			})
		}
	}
	return techniques, nil
}
