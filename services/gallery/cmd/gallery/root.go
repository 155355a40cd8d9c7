package main

import (
	"github.com/spf13/cobra"
)

// configFile is shared by every subcommand.
var configFile string

// NewRootCmd creates the root command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "gallery",
		Short:        "Cat adoption gallery backend",
		SilenceUsage: true,
		RunE:         runServe,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default config.yaml)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewPruneSessionsCmd())
	return cmd
}
