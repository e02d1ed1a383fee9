package index

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/searchsync/searchsync/internal/analyzer"
	"github.com/searchsync/searchsync/internal/entity"
	serrors "github.com/searchsync/searchsync/internal/errors"
)

// Manager owns one Provider per registered entity. Index namespaces are
// directories under the root, named after the entity, so queries never
// leak across entities. An empty root keeps every index in memory.
type Manager struct {
	root      string
	providers map[string]Provider
	lock      *flock.Flock
	log       *slog.Logger
}

// NewManager opens an index for every entity in the registry. Call after
// the registry is frozen. When root is non-empty the manager takes an
// advisory lock on it so a second process cannot mutate the same segment
// files.
func NewManager(root string, reg *entity.Registry, defaultAnalyzer string, log *slog.Logger) (*Manager, error) {
	if log == nil {
		log = slog.Default()
	}

	m := &Manager{
		root:      root,
		providers: make(map[string]Provider),
		log:       log,
	}

	if root != "" {
		if err := os.MkdirAll(root, 0755); err != nil {
			return nil, serrors.IndexUnavailable("cannot create index root", err)
		}
		m.lock = flock.New(filepath.Join(root, ".searchsync.lock"))
		locked, err := m.lock.TryLock()
		if err != nil {
			return nil, serrors.IndexUnavailable("cannot acquire index lock", err)
		}
		if !locked {
			return nil, serrors.New(serrors.ErrCodeIndexLocked,
				fmt.Sprintf("index root %s is locked by another process", root), nil)
		}
	}

	for _, name := range reg.Names() {
		desc, err := reg.Lookup(name)
		if err != nil {
			m.closeAll()
			return nil, err
		}

		analyzerName := desc.Analyzer
		if analyzerName == "" {
			analyzerName = defaultAnalyzer
		}
		bleveName, err := analyzer.BleveName(analyzerName)
		if err != nil {
			m.closeAll()
			return nil, err
		}

		path := ""
		if root != "" {
			path = filepath.Join(root, name)
		}
		provider, err := newBleveIndex(path, desc, bleveName)
		if err != nil {
			m.closeAll()
			return nil, err
		}

		m.providers[name] = provider
		log.Debug("index_opened",
			slog.String("entity", name),
			slog.String("analyzer", analyzerName),
			slog.String("path", path))
	}

	return m, nil
}

// Get returns the provider for an entity.
func (m *Manager) Get(entityName string) (Provider, error) {
	provider, ok := m.providers[entityName]
	if !ok {
		return nil, serrors.NotRegistered(entityName)
	}
	return provider, nil
}

// Close closes every provider and releases the root lock.
func (m *Manager) Close() error {
	err := m.closeAll()
	if m.lock != nil {
		if unlockErr := m.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
		m.lock = nil
	}
	return err
}

func (m *Manager) closeAll() error {
	var firstErr error
	for name, provider := range m.providers {
		if err := provider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.providers, name)
	}
	return firstErr
}
