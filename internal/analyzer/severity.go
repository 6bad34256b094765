package analyzer

import (
	"fmt"
	"strings"
)

// Severity represents the danger level of a finding.
type Severity int

const (
	// Safe indicates no danger detected.
	Safe Severity = iota
	// Low indicates a minor concern.
	Low
	// Medium indicates moderate risk with workarounds available.
	Medium
	// High indicates a long lock or table rewrite is likely.
	High
	// Critical indicates data loss or a failed migration on populated tables.
	Critical
)

//nolint:gochecknoglobals // read-only lookup table
var severityLabels = map[Severity]string{
	Safe:     "SAFE",
	Low:      "LOW",
	Medium:   "MEDIUM",
	High:     "HIGH",
	Critical: "CRITICAL",
}

// String returns the uppercase label for the severity level.
func (s Severity) String() string {
	if label, ok := severityLabels[s]; ok {
		return label
	}

	return "UNKNOWN"
}

// ParseSeverity accepts a label in any case, as written in config files and flags.
func ParseSeverity(label string) (Severity, error) {
	for s, l := range severityLabels {
		if strings.EqualFold(l, label) {
			return s, nil
		}
	}

	return Safe, fmt.Errorf("unknown severity %q", label)
}

// Color returns an ANSI color code for terminal output.
func (s Severity) Color() string {
	switch s {
	case Safe:
		return "\033[32m" // green
	case Low:
		return "\033[36m" // cyan
	case Medium:
		return "\033[33m" // yellow
	case High:
		return "\033[31m" // red
	case Critical:
		return "\033[91m" // bright red
	default:
		return "\033[0m" // reset
	}
}
