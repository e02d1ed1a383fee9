// Package index wraps bleve as the per-entity full-text index provider.
//
// Each entity owns one index namespace. Documents are keyed by the
// record's stringified primary key and carry one text field per indexed
// entity field. Searches return (key, score) pairs in descending score
// order; ties fall back to bleve's internal order, which is deterministic
// for identical index state.
package index

import (
	"context"
)

// Mode selects how terms within one query combine.
type Mode int

const (
	// ModeAnd requires every term to match (default).
	ModeAnd Mode = iota
	// ModeOr requires any term to match.
	ModeOr
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == ModeOr {
		return "or"
	}
	return "and"
}

// Query is a ranked search request against one entity's index.
type Query struct {
	// Terms are analyzer-normalized terms. The caller tokenizes query
	// text with the same analyzer the index was built with.
	Terms []string

	// Fields are the target fields. Must be a subset of the entity's
	// indexed fields; empty means all of them.
	Fields []string

	// Mode combines terms with AND (default) or OR.
	Mode Mode

	// Limit caps the ranked result set. Zero or negative means no cap:
	// the request size falls back to the index document count.
	Limit int
}

// Hit is one ranked result.
type Hit struct {
	Key   string
	Score float64
}

// Provider is the per-entity index capability.
type Provider interface {
	// Upsert replaces the document for key with the given field values.
	// A full replace, never an incremental field patch.
	Upsert(ctx context.Context, key string, fields map[string]string) error

	// Delete removes the document for key. Deleting an absent document
	// is a no-op.
	Delete(ctx context.Context, key string) error

	// Search returns ranked hits, descending by score.
	Search(ctx context.Context, q Query) ([]Hit, error)

	// Tokenize segments text with the analyzer this index was built
	// with. Querying must use the same analyzer as indexing.
	Tokenize(text string) ([]string, error)

	// DocCount returns the number of documents in the index.
	DocCount() (uint64, error)

	// Close releases the index.
	Close() error
}
