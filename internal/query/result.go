package query

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/searchsync/searchsync/internal/entity"
	"github.com/searchsync/searchsync/internal/index"
	"github.com/searchsync/searchsync/internal/record"
)

// resolveParallelism bounds concurrent record lookups during resolution.
const resolveParallelism = 8

// Result is an immutable ranked result set. Filter and Search return new
// values; a Result never mutates after construction.
type Result struct {
	composer *Composer
	desc     entity.Descriptor
	hits     []index.Hit
	filters  []record.Filter
}

// Len returns the number of ranked keys before filtering.
func (r *Result) Len() int {
	return len(r.hits)
}

// Keys returns the ranked primary keys, descending by score.
func (r *Result) Keys() []string {
	keys := make([]string, len(r.hits))
	for i, hit := range r.hits {
		keys[i] = hit.Key
	}
	return keys
}

// Scores returns the relevance scores aligned with Keys.
func (r *Result) Scores() []float64 {
	scores := make([]float64, len(r.hits))
	for i, hit := range r.hits {
		scores[i] = hit.Score
	}
	return scores
}

// Filter returns a new Result with an additional structured predicate.
// Filtering subtracts entries during resolution; it never reorders.
func (r *Result) Filter(f record.Filter) *Result {
	filters := make([]record.Filter, 0, len(r.filters)+1)
	filters = append(filters, r.filters...)
	filters = append(filters, f)
	return &Result{
		composer: r.composer,
		desc:     r.desc,
		hits:     r.hits,
		filters:  filters,
	}
}

// Search chains a further full-text query on the same entity, combined as
// logical AND: the new Result holds the keys satisfying both queries.
// Order and scores come from the later query; earlier scores are
// discarded rather than merged (the chosen tie-break policy, since score
// merging across stages is ambiguous). Structured filters carry over.
func (r *Result) Search(ctx context.Context, queryText string, opts Options) (*Result, error) {
	next, err := r.composer.Search(ctx, r.desc.Name, queryText, opts)
	if err != nil {
		return nil, err
	}

	have := make(map[string]struct{}, len(r.hits))
	for _, hit := range r.hits {
		have[hit.Key] = struct{}{}
	}

	intersected := make([]index.Hit, 0, len(next.hits))
	for _, hit := range next.hits {
		if _, ok := have[hit.Key]; ok {
			intersected = append(intersected, hit)
		}
	}

	return &Result{
		composer: r.composer,
		desc:     r.desc,
		hits:     intersected,
		filters:  r.filters,
	}, nil
}

// Records resolves the ranked keys against the record store, preserving
// rank order. A key with no resolvable record is silently skipped: the
// index and store may briefly disagree around a commit, and the result
// set degrades gracefully rather than erroring. Structured filters are
// applied during resolution.
func (r *Result) Records(ctx context.Context) ([]record.Record, error) {
	if len(r.hits) == 0 {
		return []record.Record{}, nil
	}

	type slot struct {
		rec record.Record
		ok  bool
	}
	slots := make([]slot, len(r.hits))

	// Resolution may parallelize; rank order is restored from the slot
	// positions afterwards.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveParallelism)
	for i, hit := range r.hits {
		g.Go(func() error {
			rec, ok, err := r.composer.store.Get(gctx, r.desc.Name, hit.Key)
			if err != nil {
				return err
			}
			slots[i] = slot{rec: rec, ok: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]record.Record, 0, len(slots))
	for _, s := range slots {
		if !s.ok {
			continue
		}
		if !r.matches(s.rec) {
			continue
		}
		records = append(records, s.rec)
	}
	return records, nil
}

func (r *Result) matches(rec record.Record) bool {
	for _, f := range r.filters {
		if !f.Match(rec) {
			return false
		}
	}
	return true
}
