package domain

// CWEEntry describes one Common Weakness Enumeration class.
type CWEEntry struct {
	ID          string `json:"id"` // e.g. "CWE-79"
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Rank        int    `json:"rank,omitempty"` // position in the top-25 list, 0 if unranked
}

// TopCWEs is a small embedded subset of the CWE Top 25. Served when the
// upstream CWE source is unavailable, so CWE lookups degrade to a
// non-empty answer for the common classes instead of failing outright.
var TopCWEs = map[string]CWEEntry{
	"CWE-79":  {ID: "CWE-79", Name: "Cross-site Scripting", Rank: 1},
	"CWE-787": {ID: "CWE-787", Name: "Out-of-bounds Write", Rank: 2},
	"CWE-89":  {ID: "CWE-89", Name: "SQL Injection", Rank: 3},
	"CWE-352": {ID: "CWE-352", Name: "Cross-Site Request Forgery", Rank: 4},
	"CWE-22":  {ID: "CWE-22", Name: "Path Traversal", Rank: 5},
	"CWE-125": {ID: "CWE-125", Name: "Out-of-bounds Read", Rank: 6},
	"CWE-78":  {ID: "CWE-78", Name: "OS Command Injection", Rank: 7},
	"CWE-416": {ID: "CWE-416", Name: "Use After Free", Rank: 8},
	"CWE-862": {ID: "CWE-862", Name: "Missing Authorization", Rank: 9},
	"CWE-434": {ID: "CWE-434", Name: "Unrestricted Upload of File with Dangerous Type", Rank: 10},
	"CWE-94":  {ID: "CWE-94", Name: "Code Injection", Rank: 11},
	"CWE-20":  {ID: "CWE-20", Name: "Improper Input Validation", Rank: 12},
	"CWE-77":  {ID: "CWE-77", Name: "Command Injection", Rank: 13},
	"CWE-287": {ID: "CWE-287", Name: "Improper Authentication", Rank: 14},
	"CWE-269": {ID: "CWE-269", Name: "Improper Privilege Management", Rank: 15},
	"CWE-502": {ID: "CWE-502", Name: "Deserialization of Untrusted Data", Rank: 16},
	"CWE-200": {ID: "CWE-200", Name: "Exposure of Sensitive Information", Rank: 17},
	"CWE-863": {ID: "CWE-863", Name: "Incorrect Authorization", Rank: 18},
	"CWE-918": {ID: "CWE-918", Name: "Server-Side Request Forgery", Rank: 19},
	"CWE-119": {ID: "CWE-119", Name: "Improper Restriction of Operations within the Bounds of a Memory Buffer", Rank: 20},
}
