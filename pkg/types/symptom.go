package types

import (
	"encoding/json"
	"sort"
	"strings"
)

// Symptom identifies an observed problem, e.g. "wont_start".
// Valid identifiers are defined by the knowledge base vocabulary.
type Symptom string

// SymptomInfo describes one vocabulary entry.
type SymptomInfo struct {
	ID          Symptom `json:"id" yaml:"id"`
	Label       string  `json:"label" yaml:"label"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
}

// Intensity is an optional caller-supplied qualifier on an observation.
// It is carried through to reports but never affects matching.
type Intensity string

const (
	IntensityUnspecified Intensity = ""
	IntensityMild        Intensity = "mild"
	IntensityModerate    Intensity = "moderate"
	IntensitySevere      Intensity = "severe"
)

// NormalizeIntensity trims and lowercases s, so "SEVERE " reads as severe.
func NormalizeIntensity(s string) Intensity {
	return Intensity(strings.ToLower(strings.TrimSpace(s)))
}

// UnmarshalJSON normalizes the decoded value; validity is checked by callers.
func (i *Intensity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*i = NormalizeIntensity(s)
	return nil
}

func (i Intensity) IsValid() bool {
	switch i {
	case IntensityUnspecified, IntensityMild, IntensityModerate, IntensitySevere:
		return true
	}
	return false
}

// Observation is a symptom reported by the caller.
type Observation struct {
	Symptom   Symptom   `json:"id"`
	Intensity Intensity `json:"intensity,omitempty"`
}

// SymptomSet is an unordered set of symptoms.
type SymptomSet map[Symptom]struct{}

// NewSymptomSet builds a set, collapsing duplicates and dropping blank ids.
func NewSymptomSet(symptoms ...Symptom) SymptomSet {
	set := make(SymptomSet, len(symptoms))
	for _, s := range symptoms {
		s = Symptom(strings.TrimSpace(string(s)))
		if s == "" {
			continue
		}
		set[s] = struct{}{}
	}
	return set
}

// SymptomSetFromObservations keeps only the symptom ids of the observations.
func SymptomSetFromObservations(obs []Observation) SymptomSet {
	ids := make([]Symptom, 0, len(obs))
	for _, o := range obs {
		ids = append(ids, o.Symptom)
	}
	return NewSymptomSet(ids...)
}

func (s SymptomSet) Has(sym Symptom) bool {
	_, ok := s[sym]
	return ok
}

// Sorted returns the members in ascending order.
func (s SymptomSet) Sorted() []Symptom {
	out := make([]Symptom, 0, len(s))
	for sym := range s {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
