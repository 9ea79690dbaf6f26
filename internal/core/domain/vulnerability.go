package domain

import (
	"regexp"
	"time"
)

// CVEIDPattern matches canonical CVE identifiers (e.g. CVE-2024-12345).
var CVEIDPattern = regexp.MustCompile(`CVE-\d{4}-\d+`)

// CVSSMetric is a normalized CVSS measurement. Every provider's metric
// (NVD cvssMetricV31/V2, Vulners cvss3, Red Hat cvss3) is mapped into
// this shape so downstream code never touches wire field names.
type CVSSMetric struct {
	Version  string  `json:"version"`
	Source   string  `json:"source"`
	Score    float64 `json:"score"`
	Severity string  `json:"severity"`
	Vector   string  `json:"vector"`
}

// Reference is a normalized advisory/reference link.
type Reference struct {
	URL    string   `json:"url"`
	Source string   `json:"source,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// Weakness is a CWE classification attached to a CVE.
type Weakness struct {
	Source string `json:"source"`
	CWEID  string `json:"cweId"`
}

// CVERecord is the normalized base vulnerability record. It is the spine
// of enrichment: no enriched view exists for a CVE without one.
type CVERecord struct {
	ID           string      `json:"id"`
	Description  string      `json:"description"`
	Published    time.Time   `json:"published"`
	LastModified time.Time   `json:"lastModified"`
	Status       string      `json:"vulnStatus,omitempty"`
	Metrics      []CVSSMetric `json:"metrics,omitempty"`
	Weaknesses   []Weakness  `json:"weaknesses,omitempty"`
	References   []Reference `json:"references,omitempty"`
}

// BestMetric returns the preferred CVSS metric: highest version first,
// primary source over secondary. Nil if the record carries no metrics.
func (r *CVERecord) BestMetric() *CVSSMetric {
	var best *CVSSMetric
	for i := range r.Metrics {
		m := &r.Metrics[i]
		if best == nil || m.Version > best.Version {
			best = m
		}
	}
	return best
}

// CNAContainer carries the cvelistV5 CNA-authored container for a CVE.
// The payload is kept opaque: consumers render it, they do not join on it.
type CNAContainer map[string]interface{}

// EnrichedVulnerability is one CVE with every cross-referenced source
// attached. Built fresh on each enrichment run, never persisted.
type EnrichedVulnerability struct {
	CVERecord

	IsKnownExploited bool        `json:"isKnownExploited"`
	KEVData          *KEVEntry   `json:"kevData,omitempty"`

	CNAContainer  CNAContainer   `json:"cnaContainer,omitempty"`
	ADPContainers []CNAContainer `json:"adpContainers,omitempty"`

	RedHatAdvisories []RedHatAdvisory `json:"redhatAdvisories,omitempty"`
	MitreAttack      []MitreTechnique `json:"mitreAttack,omitempty"`
	AbuseIPDBInfo    []IPReport       `json:"abuseIpdbInfo,omitempty"`
}

// EnrichmentResult is the materialized output of one enrichment run.
type EnrichmentResult struct {
	GenerationID       string                  `json:"generationId"`
	Timestamp          time.Time               `json:"timestamp"`
	VulnerabilityCount int                     `json:"vulnerabilityCount"`
	Vulnerabilities    []EnrichedVulnerability `json:"vulnerabilities"`
	Warnings           []string                `json:"warnings,omitempty"`
}
