package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/searchsync/searchsync/internal/analyzer"
	"github.com/searchsync/searchsync/internal/entity"
	serrors "github.com/searchsync/searchsync/internal/errors"
)

// bleveIndex implements Provider on a bleve.Index.
type bleveIndex struct {
	mu           sync.RWMutex
	index        bleve.Index
	entityName   string
	analyzerName string // bleve analyzer name
	closed       bool
}

// Verify interface implementation at compile time.
var _ Provider = (*bleveIndex)(nil)

// newBleveIndex opens (or creates) the index for one entity. An empty
// path creates an in-memory index for testing.
func newBleveIndex(path string, desc entity.Descriptor, bleveAnalyzer string) (*bleveIndex, error) {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = bleveAnalyzer

	docMapping := bleve.NewDocumentMapping()
	for _, field := range desc.IndexedFields {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = bleveAnalyzer
		fm.Store = false
		fm.IncludeInAll = false
		fm.IncludeTermVectors = false
		docMapping.AddFieldMappingsAt(field, fm)
	}
	indexMapping.DefaultMapping = docMapping

	var idx bleve.Index
	var err error
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0755); mkErr != nil {
			return nil, serrors.IndexUnavailable(
				fmt.Sprintf("cannot create index directory for entity %q", desc.Name), mkErr)
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, serrors.IndexUnavailable(
			fmt.Sprintf("cannot open index for entity %q", desc.Name), err)
	}

	return &bleveIndex{
		index:        idx,
		entityName:   desc.Name,
		analyzerName: bleveAnalyzer,
	}, nil
}

// Upsert replaces the document for key. bleve's Index call overwrites an
// existing document with the same ID, which gives replace semantics.
func (b *bleveIndex) Upsert(ctx context.Context, key string, fields map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return serrors.IndexUnavailable("index is closed", nil)
	}
	if err := b.index.Index(key, fields); err != nil {
		return serrors.IndexUnavailable(
			fmt.Sprintf("failed to index document %s for entity %q", key, b.entityName), err)
	}
	return nil
}

// Delete removes the document for key. Absent keys are a no-op.
func (b *bleveIndex) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return serrors.IndexUnavailable("index is closed", nil)
	}
	if err := b.index.Delete(key); err != nil {
		return serrors.IndexUnavailable(
			fmt.Sprintf("failed to delete document %s for entity %q", key, b.entityName), err)
	}
	return nil
}

// Search executes a ranked query. Each term becomes a disjunction of
// per-field term queries; terms combine per the query mode.
func (b *bleveIndex) Search(ctx context.Context, q Query) ([]Hit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, serrors.IndexUnavailable("index is closed", nil)
	}
	if len(q.Terms) == 0 {
		return []Hit{}, nil
	}

	termQueries := make([]query.Query, 0, len(q.Terms))
	for _, term := range q.Terms {
		perField := make([]query.Query, 0, len(q.Fields))
		for _, field := range q.Fields {
			tq := bleve.NewTermQuery(term)
			tq.SetField(field)
			perField = append(perField, tq)
		}
		if len(perField) == 1 {
			termQueries = append(termQueries, perField[0])
		} else {
			termQueries = append(termQueries, bleve.NewDisjunctionQuery(perField...))
		}
	}

	var combined query.Query
	switch {
	case len(termQueries) == 1:
		combined = termQueries[0]
	case q.Mode == ModeOr:
		combined = bleve.NewDisjunctionQuery(termQueries...)
	default:
		combined = bleve.NewConjunctionQuery(termQueries...)
	}

	size := q.Limit
	if size <= 0 {
		count, err := b.index.DocCount()
		if err != nil {
			return nil, serrors.IndexUnavailable("failed to read document count", err)
		}
		size = int(count)
	}

	req := bleve.NewSearchRequest(combined)
	req.Size = size

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, serrors.IndexUnavailable(
			fmt.Sprintf("search failed for entity %q", b.entityName), err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, Hit{Key: hit.ID, Score: hit.Score})
	}
	return hits, nil
}

// Tokenize runs the index's analyzer over query text.
func (b *bleveIndex) Tokenize(text string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, serrors.IndexUnavailable("index is closed", nil)
	}
	return analyzer.Tokenize(b.index.Mapping(), b.analyzerName, text)
}

// DocCount returns the number of indexed documents.
func (b *bleveIndex) DocCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0, serrors.IndexUnavailable("index is closed", nil)
	}
	count, err := b.index.DocCount()
	if err != nil {
		return 0, serrors.IndexUnavailable("failed to read document count", err)
	}
	return count, nil
}

// Close closes the index. Idempotent.
func (b *bleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.index != nil {
		return b.index.Close()
	}
	return nil
}
