package engine

import (
	"github.com/mrhapile/car-diagnoser/pkg/rules"
	"github.com/mrhapile/car-diagnoser/pkg/types"
)

// Candidate is a rule whose required symptoms are all present.
type Candidate struct {
	Rule    rules.Rule
	Score   float64
	Matched []types.Symptom
}

// Match scores every rule applicable to vehicle against symptoms.
//
// A rule is a candidate only when all of its required symptoms are present;
// partial matches are dropped. Candidates score
//
//	1.0 + |optional ∩ symptoms| / max(1, |optional|)
//
// Symptoms outside the vocabulary simply never match anything. Match does
// not modify kb or symptoms and is safe for concurrent use.
func Match(kb *rules.KnowledgeBase, vehicle types.Vehicle, symptoms types.SymptomSet) []Candidate {
	if kb == nil || len(symptoms) == 0 {
		return nil
	}

	var candidates []Candidate
	for _, rule := range kb.RulesFor(vehicle) {
		if !containsAll(symptoms, rule.Required) {
			continue
		}

		matched := append([]types.Symptom(nil), rule.Required...)
		optionalHits := 0
		for _, s := range rule.Optional {
			if symptoms.Has(s) {
				optionalHits++
				matched = append(matched, s)
			}
		}

		candidates = append(candidates, Candidate{
			Rule:    rule,
			Score:   score(optionalHits, len(rule.Optional)),
			Matched: types.NewSymptomSet(matched...).Sorted(),
		})
	}
	return candidates
}

func score(optionalHits, optionalTotal int) float64 {
	return types.ScoreRequired + types.ScoreOptionalMax*float64(optionalHits)/float64(max(1, optionalTotal))
}

func containsAll(set types.SymptomSet, required []types.Symptom) bool {
	if len(required) == 0 {
		return false
	}
	for _, s := range required {
		if !set.Has(s) {
			return false
		}
	}
	return true
}
