package models

import "strings"

// Severity 风险等级（有序）
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityNone:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the ordinal position for comparisons. Unknown values rank
// below none.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

func (s Severity) AtLeast(other Severity) bool { return s.Rank() >= other.Rank() }

// MaxSeverity returns the higher of two levels, never averaging down.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// ParseSeverity accepts both vocabularies used historically by the product:
// the five-word scale (safe/caution/concern/crisis/critical) and the
// four-word scale (low/medium/high/critical), normalizing to one ordinal set.
func ParseSeverity(raw string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "none", "safe":
		return SeverityNone, true
	case "low", "caution":
		return SeverityLow, true
	case "medium", "moderate", "concern":
		return SeverityMedium, true
	case "high", "crisis":
		return SeverityHigh, true
	case "critical":
		return SeverityCritical, true
	}
	return SeverityNone, false
}
