package domain

// TrendWindowDays is the rolling window the trends endpoint reports over.
const TrendWindowDays = 30

// ThreatTrendPoint is one calendar day of aggregate counts.
// Date is a display label (e.g. "Jan 5"), not a sortable key: it carries
// no year, so the same label from two different years collides. Source
// behavior is preserved as-is.
type ThreatTrendPoint struct {
	Date     string `json:"date"`
	CVEs     int    `json:"cves"`
	Exploits int    `json:"exploits"`
}
