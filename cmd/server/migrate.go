package main

import (
	"github.com/spf13/cobra"
	"github.com/yukikurage/issue-tracker-api/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		if err := database.MigrateDatabase(db, log); err != nil {
			return err
		}
		log.Info("migrations complete")
		return nil
	},
}
