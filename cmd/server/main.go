package main

import (
	"database/sql"
	"os"

	"github.com/spf13/cobra"

	"github.com/iliyamo/online-cinema/internal/config"
	"github.com/iliyamo/online-cinema/internal/database"
	"github.com/iliyamo/online-cinema/internal/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "cinema",
		Short: "Online cinema backend",
		Long: `Online cinema backend: accounts, movie catalog and background jobs.

Without a subcommand the HTTP API is started, same as "cinema serve".`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.AddCommand(newServeCommand(), newWorkerCommand(), newCleanupCommand(), newMigrateCommand())
	return root
}

// bootstrap loads configuration, initializes logging and opens MySQL.
func bootstrap() (config.Config, *sql.DB, error) {
	cfg := config.Load()
	logger.InitLogger(cfg.LogLevel)
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, db, nil
}
