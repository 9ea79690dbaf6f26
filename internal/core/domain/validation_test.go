package domain

import "testing"

func TestIsValidCVEID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"CVE-2021-44228", true},
		{"CVE-1999-0001", true},
		{"CVE-2024-123456", true},
		{"cve-2021-44228", false},
		{"CVE-21-44228", false},
		{"CVE-2021-123", false},
		{"invalid", false},
		{"", false},
	}

	for _, tt := range tests {
		if IsValidCVEID(tt.id) != tt.valid {
			t.Errorf("IsValidCVEID(%s) = %v; want %v", tt.id, IsValidCVEID(tt.id), tt.valid)
		}
	}
}

func TestIsValidCWEID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"CWE-79", true},
		{"CWE-787", true},
		{"CWE-1321", true},
		{"cwe-79", false},
		{"CWE-", false},
		{"79", false},
		{"", false},
	}

	for _, tt := range tests {
		if IsValidCWEID(tt.id) != tt.valid {
			t.Errorf("IsValidCWEID(%s) = %v; want %v", tt.id, IsValidCWEID(tt.id), tt.valid)
		}
	}
}

func TestIsValidIPv4(t *testing.T) {
	tests := []struct {
		address string
		valid   bool
	}{
		{"1.2.3.4", true},
		{"192.168.0.1", true},
		{"255.255.255.255", true},
		{"256.1.1.1", false},
		{"1.2.3", false},
		{"1.2.3.4.5", false},
		{"01.2.3.4", false},
		{"; rm -rf /", false},
		{"", false},
	}

	for _, tt := range tests {
		if IsValidIPv4(tt.address) != tt.valid {
			t.Errorf("IsValidIPv4(%s) = %v; want %v", tt.address, IsValidIPv4(tt.address), tt.valid)
		}
	}
}
