package rules

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRule is the sentinel wrapped by every ConfigError.
var ErrInvalidRule = errors.New("invalid rule definition")

// Problem is a single validation failure found while loading rules.
type Problem struct {
	RuleID string
	Field  string
	Reason string
}

func (p Problem) String() string {
	if p.RuleID == "" {
		return fmt.Sprintf("%s: %s", p.Field, p.Reason)
	}
	return fmt.Sprintf("rule %q: %s: %s", p.RuleID, p.Field, p.Reason)
}

// ConfigError reports a malformed knowledge base. It is only produced at
// load time and must stop the caller from serving requests.
type ConfigError struct {
	Source   string
	Problems []Problem
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("invalid rules config")
	if e.Source != "" {
		fmt.Fprintf(&b, " (%s)", e.Source)
	}
	for i, p := range e.Problems {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(p.String())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidRule
}
