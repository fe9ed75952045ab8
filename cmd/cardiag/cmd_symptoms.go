package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSymptomsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "symptoms",
		Short: "List the symptom vocabulary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := setup(root)
			if err != nil {
				return err
			}
			kb, err := loadKnowledgeBase(cfg.Rules)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL")
			for _, s := range kb.Symptoms() {
				fmt.Fprintf(tw, "%s\t%s\n", s.ID, s.Label)
			}
			return tw.Flush()
		},
	}
}
