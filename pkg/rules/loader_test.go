package rules

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrhapile/car-diagnoser/pkg/types"
)

const validYAML = `
version: "v1"
symptoms:
  - id: wont_start
    label: Won't start
  - id: clicking_noise
    label: Clicking
  - id: dim_lights
    label: Dim lights
rules:
  - id: battery-dead
    issue: Dead battery
    description: Battery is flat.
    solution: null
    severity: high
    required: [wont_start, clicking_noise, wont_start]
    optional: [dim_lights]
    cost: {min: 80, max: 150}
  - id: no-start-any
    issue: Something else
    description: Catch-all.
    severity: low
    required: [wont_start]
`

func vocab(ids ...types.Symptom) []types.SymptomInfo {
	out := make([]types.SymptomInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.SymptomInfo{ID: id, Label: string(id)})
	}
	return out
}

func TestLoadYAML(t *testing.T) {
	kb, err := LoadYAML([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "v1", kb.Version())
	assert.Equal(t, 2, kb.Len())
	assert.True(t, kb.Known("dim_lights"))
	assert.False(t, kb.Known("engine_noise"))

	rs := kb.Rules()
	require.Len(t, rs, 2)
	assert.Equal(t, "battery-dead", rs[0].ID, "document order is kept")
	assert.Equal(t, []types.Symptom{"clicking_noise", "wont_start"}, rs[0].Required, "required is deduped and sorted")
	assert.Empty(t, rs[0].Solution)
	require.NotNil(t, rs[0].Cost)
	assert.Equal(t, 150.0, rs[0].Cost.Max)
	assert.Nil(t, rs[1].Cost)
}

func TestLoadYAML_RejectsUnknownFields(t *testing.T) {
	_, err := LoadYAML([]byte(strings.Replace(validYAML, "severity: low", "severity: low\n    priority: 3", 1)))
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "document", cfgErr.Problems[0].Field)
}

func TestLoadYAML_Empty(t *testing.T) {
	_, err := LoadYAML(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRule)
	assert.Contains(t, err.Error(), "vocabulary must not be empty")
}

func TestLoadRules_Validation(t *testing.T) {
	base := func() Rule {
		return Rule{
			ID:       "r1",
			Issue:    "Dead battery",
			Severity: types.SeverityHigh,
			Required: []types.Symptom{"wont_start"},
			Cost:     &types.CostRange{Min: 10, Max: 20},
		}
	}

	tests := []struct {
		name   string
		mutate func(r *Rule)
		field  string
		reason string
	}{
		{"empty required", func(r *Rule) { r.Required = nil }, "required", "must not be empty"},
		{"blank required", func(r *Rule) { r.Required = []types.Symptom{"  "} }, "required", "must not be empty"},
		{"unknown required symptom", func(r *Rule) { r.Required = []types.Symptom{"warp_drive"} }, "required", `unknown symptom "warp_drive"`},
		{"unknown optional symptom", func(r *Rule) { r.Optional = []types.Symptom{"warp_drive"} }, "optional", `unknown symptom "warp_drive"`},
		{"optional overlaps required", func(r *Rule) { r.Optional = []types.Symptom{"wont_start"} }, "optional", "already required"},
		{"invalid severity", func(r *Rule) { r.Severity = "critical" }, "severity", `unknown severity "critical"`},
		{"cost min above max", func(r *Rule) { r.Cost = &types.CostRange{Min: 200, Max: 100} }, "cost", "exceeds max"},
		{"negative cost", func(r *Rule) { r.Cost = &types.CostRange{Min: -1, Max: 100} }, "cost", "must not be negative"},
		{"nan cost", func(r *Rule) { r.Cost = &types.CostRange{Min: math.NaN(), Max: 10} }, "cost", "must be finite"},
		{"infinite cost", func(r *Rule) { r.Cost = &types.CostRange{Min: 10, Max: math.Inf(1)} }, "cost", "must be finite"},
		{"blank issue", func(r *Rule) { r.Issue = " " }, "issue", "must not be empty"},
		{"blank id", func(r *Rule) { r.ID = "" }, "id", "must not be empty"},
		{"inverted year range", func(r *Rule) { r.Vehicles = []VehicleFilter{{YearFrom: 2020, YearTo: 2010}} }, "vehicles[0]", "exceeds year_to"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.mutate(&r)

			kb, err := LoadRules(Document{Symptoms: vocab("wont_start", "dim_lights"), Rules: []Rule{r}})
			require.Error(t, err)
			assert.Nil(t, kb)
			assert.ErrorIs(t, err, ErrInvalidRule)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			found := false
			for _, p := range cfgErr.Problems {
				if p.Field == tt.field && strings.Contains(p.Reason, tt.reason) {
					found = true
				}
			}
			assert.True(t, found, "expected problem %s: %s, got %v", tt.field, tt.reason, cfgErr.Problems)
		})
	}
}

func TestLoadRules_DuplicateIDs(t *testing.T) {
	r := Rule{ID: "dup", Issue: "X", Severity: types.SeverityLow, Required: []types.Symptom{"wont_start"}}
	_, err := LoadRules(Document{Symptoms: vocab("wont_start"), Rules: []Rule{r, r}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `rule "dup": id: duplicate rule id`)
}

func TestLoadYAML_RejectsNaNCost(t *testing.T) {
	doc := strings.Replace(validYAML, "cost: {min: 80, max: 150}", "cost: {min: .nan, max: 10}", 1)

	_, err := LoadYAML([]byte(doc))
	require.ErrorIs(t, err, ErrInvalidRule)
	assert.Contains(t, err.Error(), "must be finite")
}

func TestLoadRules_DuplicateVocabulary(t *testing.T) {
	_, err := LoadRules(Document{Symptoms: vocab("wont_start", "wont_start")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate symptom "wont_start"`)
}

func TestLoadRules_CollectsAllProblems(t *testing.T) {
	bad := []Rule{
		{ID: "a", Issue: "A", Severity: "urgent", Required: []types.Symptom{"wont_start"}},
		{ID: "b", Issue: "B", Severity: types.SeverityLow},
	}
	_, err := LoadRules(Document{Symptoms: vocab("wont_start"), Rules: bad})

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Len(t, cfgErr.Problems, 2)
}

func TestLoadRules_DoesNotAliasInput(t *testing.T) {
	doc := Document{
		Symptoms: vocab("wont_start", "dim_lights"),
		Rules: []Rule{{
			ID: "r", Issue: "X", Severity: types.SeverityLow,
			Required: []types.Symptom{"wont_start"},
			Cost:     &types.CostRange{Min: 1, Max: 2},
		}},
	}
	kb, err := LoadRules(doc)
	require.NoError(t, err)

	doc.Rules[0].Required[0] = "dim_lights"
	doc.Rules[0].Cost.Max = 1000

	r := kb.Rules()[0]
	assert.Equal(t, []types.Symptom{"wont_start"}, r.Required)
	assert.Equal(t, 2.0, r.Cost.Max)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: x\nsymptoms: []\n"), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, path, cfgErr.Source)
	assert.Contains(t, err.Error(), path)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidRule)
}

func TestDefault(t *testing.T) {
	kb, err := Default()
	require.NoError(t, err)
	assert.NotEmpty(t, kb.Version())
	assert.Greater(t, kb.Len(), 10)
	assert.True(t, kb.Known("wont_start"))
	assert.True(t, kb.Known("clicking_noise"))
}
