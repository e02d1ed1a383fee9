package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	serrors "github.com/searchsync/searchsync/internal/errors"
	"github.com/searchsync/searchsync/internal/index"
	"github.com/searchsync/searchsync/internal/output"
	"github.com/searchsync/searchsync/internal/query"
	"github.com/searchsync/searchsync/internal/record"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	fields  []string
	orMode  bool
	limit   int
	filters []string // field:op:value
	format  string   // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <entity> <query>",
		Short: "Run a ranked full-text query against one entity",
		Long: `Search an entity's index and resolve the ranked hits against the
record store.

Terms are combined with AND by default; pass --or for any-term matching.
Structured filters narrow the resolved records without reordering them.

Examples:
  searchsync search post "hello world"
  searchsync search post "title" --fields title --limit 5
  searchsync search post "hello" --or --filter views:gt:100
  searchsync search post "hello" --format json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityName := args[0]
			queryText := strings.Join(args[1:], " ")
			return runSearch(cmd.Context(), cmd, entityName, queryText, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.fields, "fields", "f", nil, "Restrict to these indexed fields (repeatable)")
	cmd.Flags().BoolVar(&opts.orMode, "or", false, "Match any term instead of all terms")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum ranked results (0 = unlimited)")
	cmd.Flags().StringSliceVar(&opts.filters, "filter", nil, "Structured filter field:op:value (repeatable, ops: eq ne gt gte lt lte contains)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, entityName, queryText string, opts searchOptions) error {
	a, err := openApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	mode := index.ModeAnd
	if opts.orMode {
		mode = index.ModeOr
	}

	slog.Info("search_started",
		slog.String("entity", entityName),
		slog.String("query", queryText),
		slog.String("mode", mode.String()))

	result, err := a.composer.Search(ctx, entityName, queryText, query.Options{
		Fields: opts.fields,
		Mode:   mode,
		Limit:  opts.limit,
	})
	if err != nil {
		return err
	}

	for _, raw := range opts.filters {
		f, err := parseFilter(raw)
		if err != nil {
			return err
		}
		result = result.Filter(f)
	}

	scores := result.Scores()
	keyScores := make(map[string]float64, len(scores))
	for i, key := range result.Keys() {
		keyScores[key] = scores[i]
	}

	records, err := result.Records(ctx)
	if err != nil {
		return err
	}
	slog.Info("search_complete", slog.Int("results", len(records)))

	desc, err := a.registry.Lookup(entityName)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		return writeSearchJSON(cmd, desc.PrimaryKeyField, keyScores, records)
	}

	out := output.New(cmd.OutOrStdout())
	if len(records) == 0 {
		out.Statusf("", "No results for %q", queryText)
		return nil
	}
	out.Statusf("🔍", "Found %d results for %q:", len(records), queryText)
	out.Newline()
	for i, rec := range records {
		key, _ := rec.Key(desc.PrimaryKeyField)
		out.Statusf("", "%d. %s=%s (score: %.3f)", i+1, desc.PrimaryKeyField, key, keyScores[key])
		for _, field := range desc.IndexedFields {
			if text, ok := rec.TextField(field); ok && text != "" {
				out.Status("", fmt.Sprintf("   %s: %s", field, snippet(text)))
			}
		}
	}
	return nil
}

// writeSearchJSON emits one object per resolved record, rank order kept.
func writeSearchJSON(cmd *cobra.Command, pkField string, scores map[string]float64, records []record.Record) error {
	type jsonResult struct {
		Key    string        `json:"key"`
		Score  float64       `json:"score"`
		Record record.Record `json:"record"`
	}

	results := make([]jsonResult, 0, len(records))
	for _, rec := range records {
		key, _ := rec.Key(pkField)
		results = append(results, jsonResult{Key: key, Score: scores[key], Record: rec})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// parseFilter parses field:op:value. The value parses as a number when it
// can, so numeric fields compare numerically.
func parseFilter(raw string) (record.Filter, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 || parts[0] == "" {
		return record.Filter{}, serrors.New(serrors.ErrCodeInvalidField,
			fmt.Sprintf("filter must be field:op:value, got %q", raw), nil)
	}

	op := record.FilterOp(parts[1])
	switch op {
	case record.FilterEq, record.FilterNe, record.FilterGt, record.FilterGte,
		record.FilterLt, record.FilterLte, record.FilterContains:
	default:
		return record.Filter{}, serrors.New(serrors.ErrCodeInvalidField,
			fmt.Sprintf("unknown filter op %q", parts[1]), nil)
	}

	var value any = parts[2]
	if n, err := strconv.ParseFloat(parts[2], 64); err == nil {
		value = n
	}
	return record.Filter{Field: parts[0], Op: op, Value: value}, nil
}

// snippet returns the first line of a field, truncated.
func snippet(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	const max = 120
	if len(text) > max {
		return text[:max] + "…"
	}
	return text
}
