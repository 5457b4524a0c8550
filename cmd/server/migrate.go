package main

import (
	"github.com/ridwanfathin/vetclinic-billing-service/internal/server"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		stores, err := server.OpenStores(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer stores.Close()

		if err := stores.Migrate(cmd.Context()); err != nil {
			return err
		}
		log.Infow("migration completed", "driver", cfg.DBDriver)
		return nil
	},
}
