package record

import (
	"strings"
)

// FilterOp is a structured comparison operator.
type FilterOp string

const (
	FilterEq       FilterOp = "eq"
	FilterNe       FilterOp = "ne"
	FilterGt       FilterOp = "gt"
	FilterGte      FilterOp = "gte"
	FilterLt       FilterOp = "lt"
	FilterLte      FilterOp = "lte"
	FilterContains FilterOp = "contains"
)

// Filter is a structured, non-text predicate over record fields. Applied
// to a ranked result set it subtracts entries, never reorders them.
type Filter struct {
	Field string
	Op    FilterOp
	Value any
}

// Match reports whether the record satisfies the filter. Records missing
// the field never match.
func (f Filter) Match(rec Record) bool {
	v, ok := rec[f.Field]
	if !ok || v == nil {
		return false
	}

	if f.Op == FilterContains {
		return strings.Contains(stringify(v), stringify(f.Value))
	}

	cmp, comparable := compareValues(v, f.Value)
	if !comparable {
		return false
	}

	switch f.Op {
	case FilterEq:
		return cmp == 0
	case FilterNe:
		return cmp != 0
	case FilterGt:
		return cmp > 0
	case FilterGte:
		return cmp >= 0
	case FilterLt:
		return cmp < 0
	case FilterLte:
		return cmp <= 0
	default:
		return false
	}
}

// compareValues orders two field values. Numbers compare numerically;
// everything else compares as strings, which orders RFC 3339 timestamps
// chronologically.
func compareValues(a, b any) (int, bool) {
	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	if aNum != bNum {
		return 0, false
	}
	return strings.Compare(stringify(a), stringify(b)), true
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	default:
		return 0, false
	}
}
