package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/searchsync/searchsync/internal/output"
)

func newReindexCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reindex [entity...]",
		Short: "Rebuild entity indexes from the record store",
		Long: `Rebuild the full-text index for the named entities from the records
currently in the store.

Use this after a sync failure left an index stale, or after changing an
entity's searchable fields or analyzer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return cmd.Help()
			}
			return runReindex(cmd.Context(), cmd, args, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Reindex every configured entity")
	return cmd
}

func runReindex(ctx context.Context, cmd *cobra.Command, entities []string, all bool) error {
	a, err := openApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if all {
		entities = a.registry.Names()
	}

	out := output.New(cmd.OutOrStdout())
	for _, name := range entities {
		n, err := a.syncer.Reindex(ctx, a.store, name)
		if err != nil {
			out.Error("reindex of " + name + " failed: " + err.Error())
			return err
		}
		out.Statusf("✅", "reindexed %s: %d records", name, n)
	}
	return nil
}
