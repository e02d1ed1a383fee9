// Package query composes ranked full-text searches with structured
// filtering and chained narrowing.
//
// A search consults the entity's index for ranked primary keys, then
// resolves them against the record store preserving rank order. The
// Result value is immutable: filtering and chaining return new values,
// so an already-issued handle can be reused and consumed repeatedly.
package query

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/searchsync/searchsync/internal/entity"
	serrors "github.com/searchsync/searchsync/internal/errors"
	"github.com/searchsync/searchsync/internal/index"
	"github.com/searchsync/searchsync/internal/record"
)

// Options configures one search.
type Options struct {
	// Fields restricts the search to a subset of the entity's indexed
	// fields. Empty means all indexed fields.
	Fields []string

	// Mode combines the query's terms with AND (default) or OR.
	Mode index.Mode

	// Limit caps the relevance-ranked set. Applied at the index, before
	// record resolution: it bounds the ranked set, not the post-filter
	// set. Zero means unlimited.
	Limit int
}

// Generations reports a monotonically increasing counter per entity that
// bumps on every committed change set. Used to key the hit cache.
type Generations interface {
	Generation(entityName string) uint64
}

// Composer issues ranked searches over registered entities.
type Composer struct {
	registry *entity.Registry
	indexes  *index.Manager
	store    record.Store
	gens     Generations
	cache    *lru.Cache[string, []index.Hit]
	log      *slog.Logger
}

// Option customizes a Composer.
type Option func(*Composer)

// WithCache enables an LRU cache of ranked hits. Cached entries key on
// the entity's commit generation, so the synchronizer's generation bump
// invalidates them structurally. Requires WithGenerations.
func WithCache(size int) Option {
	return func(c *Composer) {
		if size > 0 {
			cache, err := lru.New[string, []index.Hit](size)
			if err == nil {
				c.cache = cache
			}
		}
	}
}

// WithGenerations supplies the per-entity commit generation source,
// normally the synchronizer.
func WithGenerations(g Generations) Option {
	return func(c *Composer) { c.gens = g }
}

// WithLogger sets the composer's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Composer) { c.log = log }
}

// NewComposer creates a Composer over a frozen registry, its index
// manager, and the record store.
func NewComposer(reg *entity.Registry, indexes *index.Manager, store record.Store, opts ...Option) *Composer {
	c := &Composer{
		registry: reg,
		indexes:  indexes,
		store:    store,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs a ranked full-text query against one entity.
func (c *Composer) Search(ctx context.Context, entityName, queryText string, opts Options) (*Result, error) {
	desc, err := c.registry.Lookup(entityName)
	if err != nil {
		return nil, err
	}

	fields := opts.Fields
	if len(fields) == 0 {
		fields = desc.IndexedFields
	} else {
		for _, f := range fields {
			if !desc.HasField(f) {
				return nil, serrors.InvalidField(entityName, f)
			}
		}
	}

	provider, err := c.indexes.Get(entityName)
	if err != nil {
		return nil, err
	}

	terms, err := provider.Tokenize(queryText)
	if err != nil {
		return nil, err
	}

	result := &Result{composer: c, desc: desc}
	if len(terms) == 0 {
		// Every term normalized away (stop words, empty input).
		return result, nil
	}

	q := index.Query{Terms: terms, Fields: fields, Mode: opts.Mode, Limit: opts.Limit}
	hits, err := c.rankedHits(ctx, entityName, provider, q)
	if err != nil {
		return nil, err
	}
	result.hits = hits
	return result, nil
}

// rankedHits consults the cache, falling through to the index.
func (c *Composer) rankedHits(ctx context.Context, entityName string, provider index.Provider, q index.Query) ([]index.Hit, error) {
	key := ""
	if c.cache != nil && c.gens != nil {
		key = cacheKey(entityName, c.gens.Generation(entityName), q)
		if hits, ok := c.cache.Get(key); ok {
			return hits, nil
		}
	}

	hits, err := provider.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if key != "" {
		c.cache.Add(key, hits)
	}
	return hits, nil
}

// cacheKey builds a cache key from everything that changes the scored
// result set, plus the entity's commit generation.
func cacheKey(entityName string, gen uint64, q index.Query) string {
	var b strings.Builder
	b.WriteString(entityName)
	b.WriteByte(0x1f)
	b.WriteString(strconv.FormatUint(gen, 10))
	b.WriteByte(0x1f)
	b.WriteString(q.Mode.String())
	b.WriteByte(0x1f)
	b.WriteString(strconv.Itoa(q.Limit))
	b.WriteByte(0x1f)
	b.WriteString(strings.Join(q.Fields, ","))
	b.WriteByte(0x1f)
	b.WriteString(strings.Join(q.Terms, " "))
	return b.String()
}
