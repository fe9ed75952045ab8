package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrhapile/car-diagnoser/internal/catalog"
	"github.com/mrhapile/car-diagnoser/internal/logging"
)

func newCatalogCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the vehicle make/model catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "update",
		Short: "Fetch makes and models from NHTSA vPIC into the catalog database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(root)
			if err != nil {
				return err
			}
			defer func() { _ = logging.Sync(logger) }()

			st, err := catalog.Open(cfg.Catalog.DBPath, logger.Named("catalog"))
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			stats, err := newCatalogUpdater(cfg.Catalog, st, logger).Update(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog updated: %d makes and %d models added\n", stats.Makes, stats.Models)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "makes",
		Short: "List stored makes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(root)
			if err != nil {
				return err
			}
			st, err := catalog.Open(cfg.Catalog.DBPath, logger.Named("catalog"))
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			makes, err := st.ListMakes(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range makes {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", m.ID, m.Name)
			}
			return nil
		},
	})
	return cmd
}
