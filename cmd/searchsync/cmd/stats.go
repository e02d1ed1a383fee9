package cmd

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/searchsync/searchsync/internal/output"
)

// entityStats is one entity's row in the stats report.
type entityStats struct {
	Entity     string `json:"entity"`
	Records    int    `json:"records"`
	Documents  uint64 `json:"documents"`
	Generation uint64 `json:"generation"`
}

func newStatsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show record and index counts per entity",
		Long: `Report, per configured entity, the number of records in the store and
the number of documents in the index. A record count above the document
count means the index is stale; run 'searchsync reindex'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), cmd, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json")
	return cmd
}

func runStats(ctx context.Context, cmd *cobra.Command, format string) error {
	a, err := openApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	stats := make([]entityStats, 0, len(a.registry.Names()))
	for _, name := range a.registry.Names() {
		records, err := a.store.Count(ctx, name)
		if err != nil {
			return err
		}
		p, err := a.indexes.Get(name)
		if err != nil {
			return err
		}
		docs, err := p.DocCount()
		if err != nil {
			return err
		}
		stats = append(stats, entityStats{
			Entity:     name,
			Records:    records,
			Documents:  docs,
			Generation: a.syncer.Generation(name),
		})
	}

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	out := output.New(cmd.OutOrStdout())
	out.Statusf("📊", "searchsync stats (%d entities)", len(stats))
	out.Newline()
	for _, s := range stats {
		out.Statusf("", "%s: %d records, %d indexed documents", s.Entity, s.Records, s.Documents)
		if uint64(s.Records) != s.Documents {
			out.Warning("  " + s.Entity + " index differs from store; consider 'searchsync reindex'")
		}
	}
	return nil
}
