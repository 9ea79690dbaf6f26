package domain

import "regexp"

// IPv4Pattern matches dotted-quad literals in free text. Octets are not
// bounds-checked; a match is only meaningful once it hits the blacklist map.
var IPv4Pattern = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

// IPReport is one normalized AbuseIPDB record for a malicious address.
type IPReport struct {
	IPAddress            string `json:"ipAddress"`
	AbuseConfidenceScore int    `json:"abuseConfidenceScore"`
	CountryCode          string `json:"countryCode,omitempty"`
	ISP                  string `json:"isp,omitempty"`
	Domain               string `json:"domain,omitempty"`
	UsageType            string `json:"usageType,omitempty"`
	TotalReports         int    `json:"totalReports"`
	LastReportedAt       string `json:"lastReportedAt,omitempty"`
}

// ThreatFoxIOC is one normalized abuse.ch ThreatFox indicator.
type ThreatFoxIOC struct {
	ID              string   `json:"id"`
	IOC             string   `json:"ioc"`
	IOCType         string   `json:"iocType"`
	ThreatType      string   `json:"threatType"`
	Malware         string   `json:"malware"`
	MalwarePrintable string  `json:"malwarePrintable,omitempty"`
	ConfidenceLevel int      `json:"confidenceLevel"`
	FirstSeen       string   `json:"firstSeen,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// ThreatFoxMalware is one malware family summary from ThreatFox.
type ThreatFoxMalware struct {
	Name      string `json:"name"`
	Printable string `json:"printable,omitempty"`
	IOCCount  int    `json:"iocCount"`
}
