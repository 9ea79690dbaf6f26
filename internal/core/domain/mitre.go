package domain

import (
	"regexp"
	"strings"
)

// TechniqueIDPattern matches ATT&CK technique references in free text,
// including sub-techniques (T1059, T1059.001).
var TechniqueIDPattern = regexp.MustCompile(`T\d{4}(\.\d{3})?`)

// MitreTechnique is one ATT&CK technique scoped to a single tactic.
// A technique listed under N kill-chain phases yields N rows, all sharing
// the same external technique ID but with distinct composite IDs.
type MitreTechnique struct {
	// ID is "<externalTechniqueId>-<tacticName>", e.g. "T1059-execution".
	ID          string   `json:"id"`
	TechniqueID string   `json:"techniqueId"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tactic      string   `json:"tactic"`
	Platforms   []string `json:"platforms,omitempty"`
	DataSources []string `json:"dataSources,omitempty"`
}

// BaseTechniqueID strips the tactic suffix from a composite technique ID,
// so tactic-variants of one technique collapse under one key.
func BaseTechniqueID(compositeID string) string {
	if i := strings.Index(compositeID, "-"); i > 0 {
		return compositeID[:i]
	}
	return compositeID
}

// KeywordTechniques maps description keywords to ATT&CK technique IDs.
// Matching is case-insensitive substring search. The mapping is advisory,
// not authoritative, so generic keywords can produce false positives.
var KeywordTechniques = map[string][]string{
	"sql injection":        {"T1505"},
	"command injection":    {"T1059"},
	"remote code execution": {"T1203", "T1059"},
	"privilege escalation": {"T1068"},
	"buffer overflow":      {"T1203"},
	"cross-site scripting": {"T1059"},
	"xss":                  {"T1059"},
	"phishing":             {"T1566"},
	"credential":           {"T1110", "T1555"},
	"brute force":          {"T1110"},
	"path traversal":       {"T1083"},
	"deserialization":      {"T1203"},
	"denial of service":    {"T1499"},
	"authentication bypass": {"T1556"},
	"lateral movement":     {"T1021"},
}
