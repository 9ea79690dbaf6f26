package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// Validation Helpers

var (
	// Stricter than CVEIDPattern, which scans free text: full match
	// only, and sequence numbers are at least four digits.
	cveIDRegex = regexp.MustCompile(`^CVE-\d{4}-\d{4,}$`)
	cweIDRegex = regexp.MustCompile(`^CWE-\d{1,4}$`)
)

// IsValidCVEID checks if the string is a well-formed CVE identifier
func IsValidCVEID(id string) bool {
	return cveIDRegex.MatchString(id)
}

// IsValidCWEID checks if the string is a well-formed CWE identifier
func IsValidCWEID(id string) bool {
	return cweIDRegex.MatchString(id)
}

// IsValidIPv4 checks if the string is a dotted-quad IPv4 address with
// in-range octets. Stricter than IPv4Pattern, which only checks shape.
func IsValidIPv4(address string) bool {
	if !IPv4Pattern.MatchString(address) || len(IPv4Pattern.FindString(address)) != len(address) {
		return false
	}
	for _, part := range strings.Split(address, ".") {
		n, err := strconv.Atoi(part)
		if err != nil || n > 255 {
			return false
		}
		if len(part) > 1 && part[0] == '0' {
			return false
		}
	}
	return true
}
