package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Match(t *testing.T) {
	rec := Record{
		"id":      float64(1),
		"title":   "a slightly long title",
		"views":   float64(10),
		"created": "2026-08-22T00:00:00Z",
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"eq string", Filter{"title", FilterEq, "a slightly long title"}, true},
		{"eq mismatch", Filter{"title", FilterEq, "other"}, false},
		{"ne", Filter{"title", FilterNe, "other"}, true},
		{"gt number", Filter{"views", FilterGt, 5}, true},
		{"gt number false", Filter{"views", FilterGt, 10}, false},
		{"gte boundary", Filter{"views", FilterGte, 10}, true},
		{"lt number", Filter{"views", FilterLt, 11}, true},
		{"lte boundary", Filter{"views", FilterLte, 10}, true},
		{"contains", Filter{"title", FilterContains, "slightly"}, true},
		{"contains miss", Filter{"title", FilterContains, "absent"}, false},
		{"missing field never matches", Filter{"ghost", FilterEq, "x"}, false},
		// RFC 3339 timestamps order chronologically as strings.
		{"timestamp gte", Filter{"created", FilterGte, "2026-08-21T00:00:00Z"}, true},
		{"timestamp lt", Filter{"created", FilterLt, "2026-08-21T00:00:00Z"}, false},
		// Mixing a number field with a non-numeric comparand never matches.
		{"type mismatch", Filter{"views", FilterGt, "banana"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(rec))
		})
	}
}

func TestFilter_IntAndFloatCompareEqual(t *testing.T) {
	rec := Record{"views": float64(10)}
	assert.True(t, Filter{"views", FilterEq, 10}.Match(rec))
	assert.True(t, Filter{"views", FilterEq, 10.0}.Match(rec))
}
