package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"catgallery/services/gallery/internal/config"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending schema migrations to the configured PostgreSQL database.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("databaseURL is required (set DATABASE_URL)")
	}

	cmd.Println("Running migrations...")
	_, closeFn, err := openDB(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	cmd.Println("Migrations completed successfully")
	return nil
}
