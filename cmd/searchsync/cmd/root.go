// Package cmd provides the CLI commands for searchsync.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/searchsync/searchsync/pkg/version"
)

// configPath is the shared --config flag value.
var configPath string

// NewRootCmd creates the root command for the searchsync CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "searchsync",
		Short: "Keep a full-text index in sync with a record store",
		Long: `searchsync maintains per-entity full-text indexes over a mutable
record store and answers ranked queries against them.

Entities, their searchable fields, and analyzers are declared in a YAML
configuration file (default: searchsync.yaml).`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("searchsync version {{.Version}}\n")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "searchsync.yaml", "Path to configuration file")

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newReindexCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
