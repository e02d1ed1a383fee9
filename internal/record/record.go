// Package record defines the primary record store contract and a SQLite
// reference implementation.
//
// The store is the system of record. Every mutation goes through Apply,
// which commits one transaction and then invokes registered commit hooks
// with the committed change set. Hooks run after the durability boundary:
// a hook failure never rolls back the commit.
package record

import (
	"context"
	"fmt"
	"strconv"
)

// Record is one record instance as a field-name to value map.
type Record map[string]any

// Op tags a change within a commit.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change is one record mutation within a committed transaction.
type Change struct {
	Op     Op
	Entity string
	Record Record
}

// ChangeSet is the set of records affected by one commit. Order among
// records in the same commit carries no meaning; each record's operation
// is independent.
type ChangeSet []Change

// Hook is a post-commit callback. It observes only durably committed
// state. Errors propagate to the Apply caller but the commit stands.
type Hook func(ctx context.Context, changes ChangeSet) error

// Store is the primary record store capability.
type Store interface {
	// Apply commits all changes in one transaction, then runs commit
	// hooks in registration order with the committed change set.
	Apply(ctx context.Context, changes ChangeSet) error

	// CommitHook registers a post-commit hook. Register during warm-up,
	// before concurrent Apply calls begin.
	CommitHook(hook Hook)

	// Get resolves a record by entity and stringified primary key.
	// Absent records return ok=false, not an error.
	Get(ctx context.Context, entityName, key string) (Record, bool, error)

	// All returns every record of an entity, for full reindexing.
	All(ctx context.Context, entityName string) ([]Record, error)

	// Count returns the number of records of an entity.
	Count(ctx context.Context, entityName string) (int, error)

	// Close releases the store.
	Close() error
}

// TextField returns the record's value for a field, stringified for
// indexing. ok is false when the field is absent from the record.
func (r Record) TextField(name string) (string, bool) {
	v, ok := r[name]
	if !ok {
		return "", false
	}
	return stringify(v), true
}

// Key returns the stringified primary key value, or ok=false when the
// field is absent.
func (r Record) Key(pkField string) (string, bool) {
	v, ok := r[pkField]
	if !ok || v == nil {
		return "", false
	}
	return stringify(v), true
}

// stringify produces a stable string form for field values. JSON decoding
// turns numbers into float64, so integral floats render without a
// fractional part to keep keys stable across storage round trips.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
