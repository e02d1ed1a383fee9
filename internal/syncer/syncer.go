// Package syncer keeps the full-text index in agreement with the record
// store.
//
// The Syncer registers as a commit hook on the record store. For every
// committed create or update it re-derives the indexed-field text and
// replaces the entity's document; for every committed delete it removes
// the document. It runs inline at the commit boundary, so a query issued
// after a commit returns observes that commit's effects.
//
// Known limitation: the hook runs after the store transaction commits. A
// failed reindex (for example a missing indexed field) leaves the index
// stale for that record with no compensating transaction; the error is
// surfaced to the committing caller and the record should be manually
// reindexed.
package syncer

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/searchsync/searchsync/internal/entity"
	serrors "github.com/searchsync/searchsync/internal/errors"
	"github.com/searchsync/searchsync/internal/index"
	"github.com/searchsync/searchsync/internal/record"
)

// Syncer synchronizes per-entity indexes with committed record state.
type Syncer struct {
	registry *entity.Registry
	indexes  *index.Manager
	log      *slog.Logger

	// generations count committed change sets per entity. Query caches
	// key on the generation, so a bump invalidates cached hits without
	// coordination.
	generations map[string]*atomic.Uint64
}

// New creates a Syncer over a frozen registry and its index manager.
// Register the returned OnCommit with the record store's CommitHook.
func New(reg *entity.Registry, indexes *index.Manager, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	gens := make(map[string]*atomic.Uint64)
	for _, name := range reg.Names() {
		gens[name] = &atomic.Uint64{}
	}
	return &Syncer{
		registry:    reg,
		indexes:     indexes,
		log:         log,
		generations: gens,
	}
}

// Generation returns the current commit generation for an entity.
func (s *Syncer) Generation(entityName string) uint64 {
	gen, ok := s.generations[entityName]
	if !ok {
		return 0
	}
	return gen.Load()
}

// OnCommit processes one committed change set. Records are independent:
// a failure on one record does not stop the pass, and the first error is
// returned after every record has been attempted. Re-running OnCommit
// with the same change set yields the same final index state.
func (s *Syncer) OnCommit(ctx context.Context, changes record.ChangeSet) error {
	var firstErr error
	touched := make(map[string]struct{})

	for _, change := range changes {
		desc, err := s.registry.Lookup(change.Entity)
		if err != nil {
			// The store contract only delivers registered entities;
			// tolerate strays rather than failing the commit hook.
			s.log.Debug("sync_skip_unregistered", slog.String("entity", change.Entity))
			continue
		}
		touched[change.Entity] = struct{}{}

		if err := s.apply(ctx, desc, change); err != nil {
			s.log.Warn("sync_record_failed",
				slog.String("entity", change.Entity),
				slog.String("op", string(change.Op)),
				slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	for name := range touched {
		s.generations[name].Add(1)
	}
	return firstErr
}

// apply synchronizes one record's document.
func (s *Syncer) apply(ctx context.Context, desc entity.Descriptor, change record.Change) error {
	provider, err := s.indexes.Get(desc.Name)
	if err != nil {
		return err
	}

	key, ok := change.Record.Key(desc.PrimaryKeyField)
	if !ok {
		return serrors.FieldResolution(desc.Name, desc.PrimaryKeyField)
	}

	if change.Op == record.OpDelete {
		return provider.Delete(ctx, key)
	}

	fields := make(map[string]string, len(desc.IndexedFields))
	for _, field := range desc.IndexedFields {
		text, ok := change.Record.TextField(field)
		if !ok {
			return serrors.FieldResolution(desc.Name, field)
		}
		fields[field] = text
	}

	// Full replace, never an incremental field patch.
	return provider.Upsert(ctx, key, fields)
}

// Reindex rebuilds an entity's index from the store: every current record
// is upserted. This is the operator remedy when a post-commit sync
// failure left the index stale.
func (s *Syncer) Reindex(ctx context.Context, store record.Store, entityName string) (int, error) {
	desc, err := s.registry.Lookup(entityName)
	if err != nil {
		return 0, err
	}

	records, err := store.All(ctx, entityName)
	if err != nil {
		return 0, err
	}

	changes := make(record.ChangeSet, 0, len(records))
	for _, rec := range records {
		changes = append(changes, record.Change{Op: record.OpUpdate, Entity: desc.Name, Record: rec})
	}

	if err := s.OnCommit(ctx, changes); err != nil {
		return 0, err
	}
	s.log.Info("reindex_complete",
		slog.String("entity", entityName),
		slog.Int("records", len(records)))
	return len(records), nil
}
