package model

import (
	"fmt"
	"strings"
)

// Severity is the scanner-reported severity of a finding.
type Severity string

const (
	SeverityUnknown  Severity = "unknown"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns an integer rank for comparison (Low=1, Critical=4).
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

func (s Severity) String() string {
	return string(s)
}

// Actionable reports whether findings of this severity get issues filed.
// Medium and low findings are watched but never filed.
func (s Severity) Actionable() bool {
	return s == SeverityCritical || s == SeverityHigh
}

// ParseSeverity parses a severity string case-insensitively. Unknown or
// empty values return an error so malformed records can be skipped instead
// of silently filed.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "medium", "moderate":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return SeverityUnknown, fmt.Errorf("invalid severity: %q", s)
	}
}
