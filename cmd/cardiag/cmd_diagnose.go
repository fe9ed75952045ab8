package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrhapile/car-diagnoser/pkg/engine"
	"github.com/mrhapile/car-diagnoser/pkg/rules"
	"github.com/mrhapile/car-diagnoser/pkg/types"
)

type diagnoseOptions struct {
	make     string
	model    string
	year     int
	symptoms []string
	limit    int
	json     bool
}

func newDiagnoseCmd(root *rootOptions) *cobra.Command {
	opts := &diagnoseOptions{}
	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Rank likely faults for a vehicle and its symptoms",
		Example: `  cardiag diagnose --make Toyota --model Corolla --year 2015 \
    --symptom wont_start --symptom clicking_noise:severe --symptom dim_lights`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDiagnose(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.make, "make", "", "Vehicle make (required)")
	f.StringVar(&opts.model, "model", "", "Vehicle model (required)")
	f.IntVar(&opts.year, "year", 0, "Vehicle model year (required)")
	f.StringSliceVarP(&opts.symptoms, "symptom", "s", nil, "Observed symptom id, optionally id:intensity (repeatable)")
	f.IntVar(&opts.limit, "limit", 0, "Show at most N results (0 = all)")
	f.BoolVar(&opts.json, "json", false, "Print the full report as JSON")

	_ = cmd.MarkFlagRequired("make")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func runDiagnose(cmd *cobra.Command, root *rootOptions, opts *diagnoseOptions) error {
	if opts.limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	cfg, _, err := setup(root)
	if err != nil {
		return err
	}
	kb, err := loadKnowledgeBase(cfg.Rules)
	if err != nil {
		return err
	}
	eng, err := engine.New(rules.NewStore(kb))
	if err != nil {
		return err
	}

	req := engine.Request{
		Vehicle: types.Vehicle{Make: opts.make, Model: opts.model, Year: opts.year},
		Limit:   opts.limit,
	}
	for _, raw := range opts.symptoms {
		obs, err := parseObservation(raw)
		if err != nil {
			return err
		}
		if !kb.Known(obs.Symptom) {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: unknown symptom %q is ignored\n", obs.Symptom)
		}
		req.Symptoms = append(req.Symptoms, obs)
	}

	report, err := eng.Analyze(req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(out, report)
	return nil
}

func printReport(out io.Writer, report types.DiagnosisReport) {
	fmt.Fprintf(out, "Vehicle:  %s\n", report.Vehicle)
	fmt.Fprintf(out, "Rules:    %s (%s)\n", report.KnowledgeBaseVersion, report.Engine)
	if len(report.Results) == 0 {
		fmt.Fprintf(out, "No matching issues. Try adding more symptoms.\n")
		return
	}
	for _, r := range report.Results {
		fmt.Fprintf(out, "\n%d. %s [%s] score %.2f\n", r.Rank, r.Issue, strings.ToUpper(r.Severity.String()), r.MatchScore)
		fmt.Fprintf(out, "   %s\n", r.Description)
		if r.Solution != "" {
			fmt.Fprintf(out, "   Fix: %s\n", r.Solution)
		}
		if r.EstimatedCost != nil {
			fmt.Fprintf(out, "   Estimated cost: $%.0f - $%.0f\n", r.EstimatedCost.Min, r.EstimatedCost.Max)
		}
		if len(r.MatchedSymptoms) > 0 {
			matched := make([]string, len(r.MatchedSymptoms))
			for i, s := range r.MatchedSymptoms {
				matched[i] = string(s)
			}
			fmt.Fprintf(out, "   Matched: %s\n", strings.Join(matched, ", "))
		}
	}
}
