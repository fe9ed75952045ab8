package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrhapile/car-diagnoser/pkg/types"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// Document is the serialized form of a knowledge base.
type Document struct {
	Version  string              `yaml:"version"`
	Symptoms []types.SymptomInfo `yaml:"symptoms"`
	Rules    []Rule              `yaml:"rules"`
}

// Default loads the knowledge base shipped with the binary.
func Default() (*KnowledgeBase, error) {
	return loadYAML(defaultRulesYAML, "embedded default_rules.yaml")
}

// LoadFile reads and validates a YAML rules document from disk.
func LoadFile(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return loadYAML(data, path)
}

// LoadYAML parses and validates a YAML rules document.
// Unknown fields are rejected.
func LoadYAML(data []byte) (*KnowledgeBase, error) {
	return loadYAML(data, "")
}

func loadYAML(data []byte, source string) (*KnowledgeBase, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ConfigError{
			Source:   source,
			Problems: []Problem{{Field: "document", Reason: err.Error()}},
		}
	}
	kb, err := LoadRules(doc)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Source = source
		}
		return nil, err
	}
	return kb, nil
}

// LoadRules validates doc and returns an immutable knowledge base.
// Every problem found is reported in a single *ConfigError.
func LoadRules(doc Document) (*KnowledgeBase, error) {
	var problems []Problem

	vocab := make(map[types.Symptom]struct{}, len(doc.Symptoms))
	symptoms := make([]types.SymptomInfo, 0, len(doc.Symptoms))
	if len(doc.Symptoms) == 0 {
		problems = append(problems, Problem{Field: "symptoms", Reason: "vocabulary must not be empty"})
	}
	for i, s := range doc.Symptoms {
		id := types.Symptom(strings.TrimSpace(string(s.ID)))
		if id == "" {
			problems = append(problems, Problem{Field: fmt.Sprintf("symptoms[%d].id", i), Reason: "must not be empty"})
			continue
		}
		if _, dup := vocab[id]; dup {
			problems = append(problems, Problem{Field: fmt.Sprintf("symptoms[%d].id", i), Reason: fmt.Sprintf("duplicate symptom %q", id)})
			continue
		}
		vocab[id] = struct{}{}
		s.ID = id
		symptoms = append(symptoms, s)
	}

	seen := make(map[string]struct{}, len(doc.Rules))
	rules := make([]Rule, 0, len(doc.Rules))
	for i, r := range doc.Rules {
		r = r.clone()
		r.ID = strings.TrimSpace(r.ID)
		ruleID := r.ID
		if ruleID == "" {
			ruleID = fmt.Sprintf("#%d", i)
			problems = append(problems, Problem{RuleID: ruleID, Field: "id", Reason: "must not be empty"})
		} else if _, dup := seen[ruleID]; dup {
			problems = append(problems, Problem{RuleID: ruleID, Field: "id", Reason: "duplicate rule id"})
		}
		seen[ruleID] = struct{}{}

		r.Required = normalizeSymptoms(r.Required)
		r.Optional = normalizeSymptoms(r.Optional)
		problems = append(problems, validateRule(ruleID, r, vocab)...)
		rules = append(rules, r)
	}

	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}

	return &KnowledgeBase{
		version:  doc.Version,
		symptoms: symptoms,
		vocab:    vocab,
		rules:    rules,
	}, nil
}

func validateRule(id string, r Rule, vocab map[types.Symptom]struct{}) []Problem {
	var problems []Problem
	add := func(field, reason string) {
		problems = append(problems, Problem{RuleID: id, Field: field, Reason: reason})
	}

	if strings.TrimSpace(r.Issue) == "" {
		add("issue", "must not be empty")
	}
	if !r.Severity.IsValid() {
		add("severity", fmt.Sprintf("unknown severity %q (want low, medium or high)", r.Severity))
	}
	if len(r.Required) == 0 {
		add("required", "must not be empty")
	}
	for _, s := range r.Required {
		if _, ok := vocab[s]; !ok {
			add("required", fmt.Sprintf("unknown symptom %q", s))
		}
	}
	required := make(map[types.Symptom]struct{}, len(r.Required))
	for _, s := range r.Required {
		required[s] = struct{}{}
	}
	for _, s := range r.Optional {
		if _, ok := vocab[s]; !ok {
			add("optional", fmt.Sprintf("unknown symptom %q", s))
		}
		if _, ok := required[s]; ok {
			add("optional", fmt.Sprintf("symptom %q is already required", s))
		}
	}
	if r.Cost != nil {
		if !finite(r.Cost.Min) || !finite(r.Cost.Max) {
			add("cost", "bounds must be finite numbers")
		} else if r.Cost.Min < 0 || r.Cost.Max < 0 {
			add("cost", "bounds must not be negative")
		}
		if finite(r.Cost.Min) && finite(r.Cost.Max) && r.Cost.Min > r.Cost.Max {
			add("cost", fmt.Sprintf("min %.2f exceeds max %.2f", r.Cost.Min, r.Cost.Max))
		}
	}
	for i, f := range r.Vehicles {
		if f.YearFrom != 0 && f.YearTo != 0 && f.YearFrom > f.YearTo {
			add(fmt.Sprintf("vehicles[%d]", i), fmt.Sprintf("year_from %d exceeds year_to %d", f.YearFrom, f.YearTo))
		}
	}
	return problems
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// normalizeSymptoms trims, dedupes and sorts a symptom list.
func normalizeSymptoms(in []types.Symptom) []types.Symptom {
	set := make(map[types.Symptom]struct{}, len(in))
	out := make([]types.Symptom, 0, len(in))
	for _, s := range in {
		s = types.Symptom(strings.TrimSpace(string(s)))
		if s == "" {
			continue
		}
		if _, dup := set[s]; dup {
			continue
		}
		set[s] = struct{}{}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
