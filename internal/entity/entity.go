// Package entity declares indexable record types and their registry.
//
// A Descriptor names the text fields of an entity that feed the full-text
// index, the field that carries the primary key, and the analyzer applied
// at both index and query time. Descriptors are registered once during
// process warm-up and are immutable afterwards.
package entity

import (
	"fmt"
	"sync"

	serrors "github.com/searchsync/searchsync/internal/errors"
)

// Descriptor describes how one entity is indexed. Immutable for the
// process lifetime once registered.
type Descriptor struct {
	// Name uniquely identifies the entity and namespaces its index.
	Name string

	// IndexedFields are the field names whose text is indexed.
	// Duplicates collapse to one; order of first occurrence is kept.
	IndexedFields []string

	// PrimaryKeyField is the field whose value uniquely and stably
	// identifies a record.
	PrimaryKeyField string

	// Analyzer names the analyzer for this entity. Empty means the
	// process-wide default applies.
	Analyzer string
}

// Validate checks the descriptor for registration.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return serrors.Configuration("entity name is required", nil)
	}
	if d.PrimaryKeyField == "" {
		return serrors.Configuration(
			fmt.Sprintf("entity %q: primary key field is required", d.Name), nil)
	}
	if len(d.IndexedFields) == 0 {
		return serrors.Configuration(
			fmt.Sprintf("entity %q: at least one indexed field is required", d.Name), nil)
	}
	return nil
}

// HasField reports whether name is one of the indexed fields.
func (d Descriptor) HasField(name string) bool {
	for _, f := range d.IndexedFields {
		if f == name {
			return true
		}
	}
	return false
}

// dedupeFields collapses duplicate field names, keeping first occurrence.
func dedupeFields(fields []string) []string {
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Registry maps entity names to their descriptors. Registration happens
// during warm-up; lookups afterwards are read-only.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]Descriptor
	ordered []string
	frozen  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Descriptor)}
}

// Register validates and adds a descriptor. Duplicate indexed fields are
// collapsed. Fails after Freeze.
func (r *Registry) Register(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return serrors.Configuration(
			fmt.Sprintf("registry is frozen, cannot register entity %q", d.Name), nil)
	}
	if _, exists := r.byName[d.Name]; exists {
		return serrors.Configuration(
			fmt.Sprintf("entity %q is already registered", d.Name), nil)
	}

	d.IndexedFields = dedupeFields(d.IndexedFields)
	r.byName[d.Name] = d
	r.ordered = append(r.ordered, d.Name)
	return nil
}

// Freeze marks warm-up complete. Subsequent Register calls fail.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Lookup returns the descriptor for an entity name.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	r.mu.RLock()
	d, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return Descriptor{}, serrors.NotRegistered(name)
	}
	return d, nil
}

// Names returns entity names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.ordered))
	copy(out, r.ordered)
	return out
}
