package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"catgallery/internal/util"
	"catgallery/services/gallery/internal/config"
)

// NewPruneSessionsCmd creates the prune-sessions subcommand.
func NewPruneSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune-sessions",
		Short: "Delete expired sessions",
		RunE:  runPruneSessions,
	}
}

func runPruneSessions(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("databaseURL is required (set DATABASE_URL)")
	}
	logger := util.InitLogger(cfg.LogLevel)

	d, err := loadDeps(cmd.Context(), logger, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	n, err := d.app.PruneExpiredSessions(cmd.Context())
	if err != nil {
		return oops.Code("PRUNE_FAILED").With("operation", "delete expired sessions").Wrap(err)
	}
	cmd.Printf("Deleted %d expired sessions\n", n)
	return nil
}
