package engine

import (
	"sort"

	"github.com/mrhapile/car-diagnoser/pkg/types"
)

// Rank orders candidates and converts them into results.
//
// Ordering: score descending, then severity (high > medium > low), then rule
// id ascending. When several candidates describe the same issue only the
// first one in that order is kept. The result count is not capped.
func Rank(candidates []Candidate) []types.DiagnosticResult {
	sorted := append([]Candidate(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		// Primary: higher score first
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		// Secondary: more severe first
		if ra, rb := a.Rule.Severity.Rank(), b.Rule.Severity.Rank(); ra != rb {
			return ra > rb
		}
		// Tertiary: rule id for stability
		return a.Rule.ID < b.Rule.ID
	})

	results := make([]types.DiagnosticResult, 0, len(sorted))
	seen := make(map[string]struct{}, len(sorted))
	for _, c := range sorted {
		if _, dup := seen[c.Rule.Issue]; dup {
			continue
		}
		seen[c.Rule.Issue] = struct{}{}

		var cost *types.CostRange
		if c.Rule.Cost != nil {
			cr := *c.Rule.Cost
			cost = &cr
		}
		results = append(results, types.DiagnosticResult{
			Rank:            len(results) + 1,
			RuleID:          c.Rule.ID,
			Issue:           c.Rule.Issue,
			Description:     c.Rule.Description,
			Solution:        c.Rule.Solution,
			Severity:        c.Rule.Severity,
			EstimatedCost:   cost,
			MatchScore:      c.Score,
			MatchedSymptoms: append([]types.Symptom(nil), c.Matched...),
		})
	}
	return results
}
