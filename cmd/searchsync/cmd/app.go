package cmd

import (
	"log/slog"

	"github.com/searchsync/searchsync/internal/config"
	"github.com/searchsync/searchsync/internal/entity"
	"github.com/searchsync/searchsync/internal/index"
	"github.com/searchsync/searchsync/internal/logging"
	"github.com/searchsync/searchsync/internal/query"
	"github.com/searchsync/searchsync/internal/record"
	"github.com/searchsync/searchsync/internal/syncer"
)

// app holds the assembled component graph for one CLI invocation.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *entity.Registry
	store    *record.SQLiteStore
	indexes  *index.Manager
	syncer   *syncer.Syncer
	composer *query.Composer

	cleanups []func()
}

// openApp loads configuration and wires the store, index manager,
// synchronizer, and composer together. Callers must Close.
func openApp(path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logCfg := logging.Config{
		Level:         cfg.Logging.Level,
		FilePath:      cfg.Logging.FilePath,
		WriteToStderr: cfg.Logging.Stderr,
	}
	log, logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)

	a := &app{cfg: cfg, log: log}
	a.cleanups = append(a.cleanups, logCleanup)

	reg := entity.NewRegistry()
	keyFields := make(map[string]string, len(cfg.Entities))
	for _, e := range cfg.Entities {
		if err := reg.Register(entity.Descriptor{
			Name:            e.Name,
			IndexedFields:   e.Fields,
			PrimaryKeyField: e.PrimaryKey,
			Analyzer:        e.Analyzer,
		}); err != nil {
			a.Close()
			return nil, err
		}
		keyFields[e.Name] = e.PrimaryKey
	}
	reg.Freeze()
	a.registry = reg

	store, err := record.NewSQLiteStore(cfg.StorePath, keyFields)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store
	a.cleanups = append(a.cleanups, func() { _ = store.Close() })

	indexes, err := index.NewManager(cfg.IndexDir, reg, cfg.DefaultAnalyzer, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.indexes = indexes
	a.cleanups = append(a.cleanups, func() { _ = indexes.Close() })

	a.syncer = syncer.New(reg, indexes, log)
	store.CommitHook(a.syncer.OnCommit)

	opts := []query.Option{query.WithLogger(log)}
	if cfg.Cache.Enabled {
		opts = append(opts,
			query.WithCache(cfg.Cache.Size),
			query.WithGenerations(a.syncer))
	}
	a.composer = query.NewComposer(reg, indexes, store, opts...)

	return a, nil
}

// Close releases resources in reverse acquisition order.
func (a *app) Close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}
