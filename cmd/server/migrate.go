package main

import (
	"github.com/spf13/cobra"

	"github.com/iliyamo/online-cinema/internal/database"
	"github.com/iliyamo/online-cinema/internal/logger"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and seed the user groups",
		Long:  "Apply the embedded schema. Every statement is idempotent, so running it again is safe.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			logger.Info("schema is up to date")
			return nil
		},
	}
}
