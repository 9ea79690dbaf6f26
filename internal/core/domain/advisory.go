package domain

// RedHatAdvisory is one normalized Red Hat security advisory (RHSA).
type RedHatAdvisory struct {
	AdvisoryID      string   `json:"advisoryId"`
	Synopsis        string   `json:"synopsis"`
	Severity        string   `json:"severity"`
	PublicDate      string   `json:"publicDate"`
	CVEs            []string `json:"cves"`
	AffectedProducts []string `json:"affectedProducts,omitempty"`
	URL             string   `json:"url,omitempty"`
}

// CNADelta is one cvelistV5 delta entry: the CVE metadata plus the
// CNA/ADP containers published for it.
type CNADelta struct {
	CVEID         string         `json:"cveId"`
	State         string         `json:"state,omitempty"`
	CNAContainer  CNAContainer   `json:"cnaContainer,omitempty"`
	ADPContainers []CNAContainer `json:"adpContainers,omitempty"`
}
