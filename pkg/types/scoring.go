package types

import "fmt"

// Match score constants. A rule only becomes a candidate when all of its
// required symptoms are present, so every candidate starts at ScoreRequired.
// Optional symptom overlap adds up to ScoreOptionalMax on top.
const (
	ScoreRequired    = 1.0
	ScoreOptionalMax = 1.0
)

// Severity of a diagnosed issue.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities for sorting: higher is more severe, 0 is invalid.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

func (s Severity) IsValid() bool {
	return s.Rank() > 0
}

func (s Severity) String() string {
	return string(s)
}

// ParseSeverity converts a tag into a Severity.
func ParseSeverity(tag string) (Severity, error) {
	s := Severity(tag)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown severity %q (want low, medium or high)", tag)
	}
	return s, nil
}

// CostRange is an estimated repair cost in whole currency units.
type CostRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}
