package rules

import (
	"strings"

	"github.com/mrhapile/car-diagnoser/pkg/types"
)

// Rule maps a required symptom combination to a diagnosable issue.
// Rules are loaded once and treated as read-only afterwards.
type Rule struct {
	ID          string           `json:"id" yaml:"id"`
	Issue       string           `json:"issue" yaml:"issue"`
	Description string           `json:"description" yaml:"description"`
	Solution    string           `json:"solution,omitempty" yaml:"solution"`
	Severity    types.Severity   `json:"severity" yaml:"severity"`
	Required    []types.Symptom  `json:"required" yaml:"required"`
	Optional    []types.Symptom  `json:"optional,omitempty" yaml:"optional"`
	Cost        *types.CostRange `json:"cost,omitempty" yaml:"cost"`

	// Vehicles restricts the rule to matching vehicles. Empty means any vehicle.
	Vehicles []VehicleFilter `json:"vehicles,omitempty" yaml:"vehicles"`
}

// VehicleFilter matches vehicles by make, model and model year range.
// Empty strings and zero years are wildcards.
type VehicleFilter struct {
	Make     string `json:"make,omitempty" yaml:"make"`
	Model    string `json:"model,omitempty" yaml:"model"`
	YearFrom int    `json:"yearFrom,omitempty" yaml:"year_from"`
	YearTo   int    `json:"yearTo,omitempty" yaml:"year_to"`
}

func (f VehicleFilter) Match(v types.Vehicle) bool {
	if f.Make != "" && !strings.EqualFold(f.Make, strings.TrimSpace(v.Make)) {
		return false
	}
	if f.Model != "" && !strings.EqualFold(f.Model, strings.TrimSpace(v.Model)) {
		return false
	}
	if f.YearFrom != 0 && v.Year < f.YearFrom {
		return false
	}
	if f.YearTo != 0 && v.Year > f.YearTo {
		return false
	}
	return true
}

// AppliesTo reports whether the rule is relevant for the vehicle.
func (r Rule) AppliesTo(v types.Vehicle) bool {
	if len(r.Vehicles) == 0 {
		return true
	}
	for _, f := range r.Vehicles {
		if f.Match(v) {
			return true
		}
	}
	return false
}

func (r Rule) clone() Rule {
	c := r
	c.Required = append([]types.Symptom(nil), r.Required...)
	c.Optional = append([]types.Symptom(nil), r.Optional...)
	c.Vehicles = append([]VehicleFilter(nil), r.Vehicles...)
	if r.Cost != nil {
		cost := *r.Cost
		c.Cost = &cost
	}
	return c
}
