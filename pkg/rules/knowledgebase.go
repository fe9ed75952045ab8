package rules

import "github.com/mrhapile/car-diagnoser/pkg/types"

// KnowledgeBase is a validated, immutable set of rules and the symptom
// vocabulary they are written against. Accessors return copies, so a
// snapshot can be shared across concurrent requests without locking.
type KnowledgeBase struct {
	version  string
	symptoms []types.SymptomInfo
	vocab    map[types.Symptom]struct{}
	rules    []Rule
}

func (kb *KnowledgeBase) Version() string {
	return kb.version
}

// Rules returns every rule in document order.
func (kb *KnowledgeBase) Rules() []Rule {
	out := make([]Rule, 0, len(kb.rules))
	for _, r := range kb.rules {
		out = append(out, r.clone())
	}
	return out
}

// RulesFor returns the rules applicable to v, in document order.
func (kb *KnowledgeBase) RulesFor(v types.Vehicle) []Rule {
	var out []Rule
	for _, r := range kb.rules {
		if r.AppliesTo(v) {
			out = append(out, r.clone())
		}
	}
	return out
}

// Symptoms returns the vocabulary in document order.
func (kb *KnowledgeBase) Symptoms() []types.SymptomInfo {
	return append([]types.SymptomInfo(nil), kb.symptoms...)
}

// Known reports whether s belongs to the vocabulary.
func (kb *KnowledgeBase) Known(s types.Symptom) bool {
	_, ok := kb.vocab[s]
	return ok
}

// Len returns the number of rules.
func (kb *KnowledgeBase) Len() int {
	return len(kb.rules)
}
