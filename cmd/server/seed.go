package main

import (
	"github.com/spf13/cobra"
	"github.com/yukikurage/issue-tracker-api/internal/database"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert reference data and the initial admin user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		if err := database.MigrateDatabase(db, log); err != nil {
			return err
		}
		return database.Seed(cmd.Context(), db, database.SeedOptions{
			AdminEmail:    cfg.AdminEmail,
			AdminPassword: cfg.AdminPassword,
		}, log)
	},
}
