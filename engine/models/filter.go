package models

import (
	"net/url"
	"sort"

	"github.com/omniql-engine/omnifilter/mapping"
)

// ============================================================================
// CONDITIONS - Raw filter input
// ============================================================================

// Condition is one raw "<OPERATOR>_<fieldPath>" = value pair.
type Condition struct {
	Key   string
	Value any
}

// Conditions is an ordered condition set. Its order is the parse order.
type Conditions []Condition

// ConditionsFromMap orders the map keys lexicographically so compilation is deterministic.
func ConditionsFromMap(m map[string]any) Conditions {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make(Conditions, 0, len(keys))
	for _, k := range keys {
		conds = append(conds, Condition{Key: k, Value: m[k]})
	}
	return conds
}

// ConditionsFromValues builds conditions from query parameters.
// A single value becomes a string, repeated values a []string.
func ConditionsFromValues(values url.Values) Conditions {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make(Conditions, 0, len(keys))
	for _, k := range keys {
		vs := values[k]
		switch len(vs) {
		case 0:
			conds = append(conds, Condition{Key: k})
		case 1:
			conds = append(conds, Condition{Key: k, Value: vs[0]})
		default:
			conds = append(conds, Condition{Key: k, Value: vs})
		}
	}
	return conds
}

// Keys returns condition keys in order.
func (c Conditions) Keys() []string {
	keys := make([]string, len(c))
	for i, cond := range c {
		keys[i] = cond.Key
	}
	return keys
}

// ============================================================================
// FILTER ENTRY - Parsed condition
// ============================================================================

// FilterEntry is one parsed (operator, field path, value) triple.
type FilterEntry struct {
	FieldPath string           // dotted attribute path, e.g. "user.profile.email"
	Column    string           // snake_case column for raw SQL sites
	Operator  mapping.Operator // never empty after parsing
	RawValue  any              // original input, never mutated
	Value     any              // coerced in place during compilation
	Bounded   bool             // LTE date-only input rewritten to an exclusive next-day bound
}

// NewFilterEntry creates an entry whose coerced value starts as the raw value.
func NewFilterEntry(path string, op mapping.Operator, value any) *FilterEntry {
	return &FilterEntry{
		FieldPath: path,
		Column:    mapping.ColumnName(path),
		Operator:  op,
		RawValue:  value,
		Value:     value,
	}
}

// Key rebuilds the condition key this entry was parsed from.
func (f *FilterEntry) Key() string {
	return string(f.Operator) + "_" + f.FieldPath
}

// ============================================================================
// SORT
// ============================================================================

// SortParam is one raw field -> ascending pair.
type SortParam struct {
	Field     string
	Ascending bool
}

// SortParams is an ordered sort input.
type SortParams []SortParam

// SortParamsFromMap orders the map keys lexicographically.
func SortParamsFromMap(m map[string]bool) SortParams {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make(SortParams, 0, len(keys))
	for _, k := range keys {
		params = append(params, SortParam{Field: k, Ascending: m[k]})
	}
	return params
}

// SortDirection represents sort order
type SortDirection string

const (
	Ascending  SortDirection = "ASC"
	Descending SortDirection = "DESC"
)

// SortDirective is one compiled ORDER BY item.
type SortDirective struct {
	Field     string
	Direction SortDirection
}

// Ascending reports whether the directive sorts ascending.
func (d SortDirective) Ascending() bool {
	return d.Direction != Descending
}

// Sort is an ordered sort specification. A nil *Sort means "no sort".
type Sort struct {
	Directives []SortDirective
}

// Len is nil-safe.
func (s *Sort) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Directives)
}

// ============================================================================
// PAGE
// ============================================================================

// Page is a zero-based page request. A nil page or Size <= 0 is unpaged.
type Page struct {
	Number int
	Size   int
}

// Paged reports whether the page restricts the result.
func (p *Page) Paged() bool {
	return p != nil && p.Size > 0
}

// Offset returns rows to skip.
func (p *Page) Offset() int {
	if !p.Paged() || p.Number < 0 {
		return 0
	}
	return p.Number * p.Size
}

// Limit returns the maximum rows to return, 0 when unpaged.
func (p *Page) Limit() int {
	if !p.Paged() {
		return 0
	}
	return p.Size
}
