// cardiag is the car-diagnoser CLI: diagnose from the command line, validate
// rule files, refresh the vehicle catalog, or run the HTTP API.
//
// Usage:
//
//	cardiag serve [--config=<path>]
//	cardiag diagnose --make=<make> --model=<model> --year=<year> --symptom=<id[:intensity]>... [--limit=N] [--json]
//	cardiag rules validate [path]
//	cardiag symptoms
//	cardiag catalog update
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "cardiag",
		Short: "Rule-based car diagnostics",
		Long: "cardiag ranks likely vehicle faults from observed symptoms using a\n" +
			"declarative rule knowledge base, and serves the same engine over HTTP.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to YAML config file")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newDiagnoseCmd(opts))
	cmd.AddCommand(newRulesCmd(opts))
	cmd.AddCommand(newSymptomsCmd(opts))
	cmd.AddCommand(newCatalogCmd(opts))
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
