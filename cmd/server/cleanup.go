package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/online-cinema/internal/job"
	"github.com/iliyamo/online-cinema/internal/model"
)

func newCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-tokens",
		Short: "Delete expired activation, password reset and refresh tokens once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()

			deleted, err := job.NewCleanupTokensJob(db).RunContext(cmd.Context())
			if err != nil {
				return fmt.Errorf("cleanup rolled back: %w", err)
			}
			for _, kind := range model.TokenKinds {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d deleted\n", kind, deleted[kind])
			}
			return nil
		},
	}
}
