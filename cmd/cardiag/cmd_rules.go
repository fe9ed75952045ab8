package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mrhapile/car-diagnoser/pkg/rules"
)

func newRulesCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate rule knowledge bases",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a rules file, or the configured rules when no path is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesValidate(cmd, root, args)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the rules of the configured knowledge base",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRulesList(cmd, root)
		},
	})
	return cmd
}

func runRulesValidate(cmd *cobra.Command, root *rootOptions, args []string) error {
	var (
		kb  *rules.KnowledgeBase
		err error
	)
	if len(args) == 1 {
		kb, err = rules.LoadFile(args[0])
	} else {
		cfg, _, setupErr := setup(root)
		if setupErr != nil {
			return setupErr
		}
		kb, err = loadKnowledgeBase(cfg.Rules)
	}

	var cfgErr *rules.ConfigError
	if errors.As(err, &cfgErr) {
		out := cmd.ErrOrStderr()
		fmt.Fprintf(out, "%s: %d problem(s)\n", cfgErr.Source, len(cfgErr.Problems))
		for _, p := range cfgErr.Problems {
			fmt.Fprintf(out, "  - %s\n", p)
		}
		return fmt.Errorf("rules validation failed")
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "OK: version %s, %d rules, %d symptoms\n",
		kb.Version(), kb.Len(), len(kb.Symptoms()))
	return nil
}

func runRulesList(cmd *cobra.Command, root *rootOptions) error {
	cfg, _, err := setup(root)
	if err != nil {
		return err
	}
	kb, err := loadKnowledgeBase(cfg.Rules)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEVERITY\tISSUE\tREQUIRED")
	for _, r := range kb.Rules() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", r.ID, r.Severity, r.Issue, r.Required)
	}
	return tw.Flush()
}
