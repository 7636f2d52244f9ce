package models

// ============================================================================
// QUERY - Compiled filter request
// ============================================================================

// Query is everything one filter request compiles to. Predicate is kept as
// an opaque value here; engine/ast owns its shape.
type Query struct {
	Entity string // entity name in the schema registry
	Table  string // table / collection / key prefix of the entity

	Filters []*FilterEntry // parsed entries, coerced in place by the compiler
	Sort    *Sort          // nil: store default ordering
	Page    *Page          // nil: unpaged
}

// Paths returns the field paths of all filters in parse order.
func (q *Query) Paths() []string {
	paths := make([]string, len(q.Filters))
	for i, f := range q.Filters {
		paths[i] = f.FieldPath
	}
	return paths
}

// SortFields returns the sorted fields in directive order.
func (q *Query) SortFields() []string {
	if q.Sort == nil {
		return nil
	}
	fields := make([]string, len(q.Sort.Directives))
	for i, d := range q.Sort.Directives {
		fields[i] = d.Field
	}
	return fields
}
