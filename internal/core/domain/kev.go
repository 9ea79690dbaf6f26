package domain

import "time"

// Urgency buckets for KEV remediation due dates, computed relative to
// "now" at request time. Boundaries shift between requests on purpose.
const (
	UrgencyUrgent   = "urgent"   // due in 7 days or less (or overdue)
	UrgencyUpcoming = "upcoming" // due in 8-30 days
	UrgencyLater    = "later"    // due in more than 30 days
	UrgencyUnknown  = "unknown"  // no parseable due date
)

// KEVEntry is one CISA Known Exploited Vulnerabilities catalog entry.
type KEVEntry struct {
	CVEID             string `json:"cveID"`
	VendorProject     string `json:"vendorProject"`
	Product           string `json:"product"`
	VulnerabilityName string `json:"vulnerabilityName"`
	DateAdded         string `json:"dateAdded"`
	DueDate           string `json:"dueDate"`
	ShortDescription  string `json:"shortDescription"`
	RequiredAction    string `json:"requiredAction"`
	Notes             string `json:"notes"`
}

// Urgency buckets the entry by how soon its remediation is due.
func (k KEVEntry) Urgency(now time.Time) string {
	due, err := time.Parse("2006-01-02", k.DueDate)
	if err != nil {
		return UrgencyUnknown
	}
	days := int(due.Sub(now).Hours() / 24)
	switch {
	case days <= 7:
		return UrgencyUrgent
	case days <= 30:
		return UrgencyUpcoming
	default:
		return UrgencyLater
	}
}

// KEVCatalog is the parsed CISA catalog.
type KEVCatalog struct {
	Title           string     `json:"title"`
	CatalogVersion  string     `json:"catalogVersion"`
	DateReleased    string     `json:"dateReleased"`
	Count           int        `json:"count"`
	Vulnerabilities []KEVEntry `json:"vulnerabilities"`
}
