// Package compiler turns parsed filter entries into a typed predicate tree.
package compiler

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/omniql-engine/omnifilter/engine/ast"
	"github.com/omniql-engine/omnifilter/engine/convert"
	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/mapping"
)

// AttributeResolver resolves a dotted attribute path on an entity to its
// declared kind. *schema.Registry implements it.
type AttributeResolver interface {
	ResolveAttributeType(entity, path string) (mapping.Kind, error)
}

// Compiler compiles filter entries. It holds no per-request state and is
// safe for concurrent use.
type Compiler struct {
	resolver AttributeResolver
	conv     *convert.Service
	logger   *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger compiled predicates are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a compiler. A nil conversion service gets the defaults.
func New(resolver AttributeResolver, conv *convert.Service, opts ...Option) *Compiler {
	if conv == nil {
		conv = convert.New()
	}
	c := &Compiler{
		resolver: resolver,
		conv:     conv,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Conversions returns the conversion service used for coercion.
func (c *Compiler) Conversions() *convert.Service {
	return c.conv
}

// Compile emits one node per entry, in order, and combines them with AND.
// No entries yields the universal predicate. Each entry's Value is reset to
// its RawValue and then coerced in place.
func (c *Compiler) Compile(entity string, filters []*models.FilterEntry) (*ast.PredicateNode, error) {
	nodes := make([]*ast.PredicateNode, 0, len(filters))
	for _, f := range filters {
		node, err := c.compileEntry(entity, f)
		if err != nil {
			return nil, withKey(err, f)
		}
		nodes = append(nodes, node)
	}

	pred := ast.And(nodes...)
	c.logger.Debug("compiled predicate",
		"entity", entity,
		"filters", len(filters),
		"predicate", pred.String())
	return pred, nil
}

func (c *Compiler) compileEntry(entity string, f *models.FilterEntry) (*ast.PredicateNode, error) {
	kind, err := c.resolver.ResolveAttributeType(entity, f.FieldPath)
	if err != nil {
		return nil, err
	}

	f.Value = f.RawValue
	f.Bounded = false

	category := mapping.OperatorCategory(f.Operator)
	if kind == mapping.KindEntity && category != mapping.CategoryNullCheck {
		return nil, &models.FilterError{
			Err:    models.ErrNonComparableType,
			Path:   f.FieldPath,
			Value:  f.RawValue,
			Target: string(kind),
		}
	}

	switch category {
	case mapping.CategoryNullCheck:
		return ast.IsNull(f.FieldPath, f.Operator == mapping.NOTNULL), nil

	case mapping.CategoryMultiValue:
		return c.compileMembership(kind, f)

	case mapping.CategoryPattern:
		return compilePattern(kind, f), nil

	case mapping.CategoryComparison, mapping.CategoryOrdering:
		return c.compileComparison(kind, f)
	}
	return nil, &models.FilterError{Err: models.ErrUnknownOperator, Value: string(f.Operator)}
}

// ============================================================================
// COMPARISON
// ============================================================================

var compareOps = map[mapping.Operator]ast.CompareOp{
	mapping.EQ:    ast.OpEq,
	mapping.NOTEQ: ast.OpNe,
	mapping.GT:    ast.OpGt,
	mapping.LT:    ast.OpLt,
	mapping.GTE:   ast.OpGte,
	mapping.LTE:   ast.OpLte,
}

func (c *Compiler) compileComparison(kind mapping.Kind, f *models.FilterEntry) (*ast.PredicateNode, error) {
	if f.Operator == mapping.LTE && mapping.IsDateCompatible(kind) {
		if bound, ok := c.nextDayBound(f.RawValue); ok {
			f.Value = bound
			f.Bounded = true
			return ast.Compare(f.FieldPath, kind, ast.OpLt, bound), nil
		}
	}

	value, err := c.coerce(f.Value, kind)
	if err != nil {
		return nil, err
	}
	f.Value = value

	if mapping.OperatorCategory(f.Operator) == mapping.CategoryOrdering {
		if !mapping.IsOrdered(kind) || !mapping.IsOrdered(mapping.KindOf(value)) {
			return nil, &models.FilterError{
				Err:    models.ErrNonComparableType,
				Path:   f.FieldPath,
				Value:  value,
				Target: string(kind),
			}
		}
	}
	return ast.Compare(f.FieldPath, kind, compareOps[f.Operator], value), nil
}

// nextDayBound applies the date boundary rule: a date-only raw string becomes
// the start of the following day, used as an exclusive upper bound.
// A parse miss is not an error; the caller falls back to generic coercion.
func (c *Compiler) nextDayBound(raw any) (any, bool) {
	s, ok := raw.(string)
	if !ok || len(s) != convert.DateOnlyLength {
		return nil, false
	}
	day, err := c.conv.ParseDate(s)
	if err != nil {
		return nil, false
	}
	return day.AddDate(0, 0, 1), true
}

// coerce converts a string value to kind when the kinds differ and a
// converter is registered. Anything else passes through untouched.
func (c *Compiler) coerce(value any, kind mapping.Kind) (any, error) {
	if _, isString := value.(string); !isString {
		return value, nil
	}
	if mapping.SameKind(kind, mapping.KindOf(value)) || !c.conv.CanConvert(mapping.KindString, kind) {
		return value, nil
	}
	return c.conv.Convert(value, kind)
}

// ============================================================================
// PATTERN
// ============================================================================

func compilePattern(kind mapping.Kind, f *models.FilterEntry) *ast.PredicateNode {
	v := stringValue(f.Value)
	f.Value = v

	switch f.Operator {
	case mapping.LLIKE:
		return ast.Like(f.FieldPath, kind, ast.Suffix(v), false)
	case mapping.RLIKE:
		return ast.Like(f.FieldPath, kind, ast.Prefix(v), false)
	case mapping.NLIKE:
		return ast.Like(f.FieldPath, kind, ast.Prefix(v), true)
	}
	return ast.Like(f.FieldPath, kind, ast.Contains(v), false)
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ============================================================================
// MEMBERSHIP
// ============================================================================

func (c *Compiler) compileMembership(kind mapping.Kind, f *models.FilterEntry) (*ast.PredicateNode, error) {
	raw := SplitValues(f.Value)
	values := make([]any, len(raw))
	for i, v := range raw {
		coerced, err := c.coerce(v, kind)
		if err != nil {
			return nil, err
		}
		values[i] = coerced
	}
	f.Value = values

	node := ast.In(f.FieldPath, kind, values)
	if f.Operator == mapping.NOTIN {
		return ast.Not(node), nil
	}
	return node, nil
}

// SplitValues normalizes IN input: a comma-delimited string, a string slice,
// or any other slice. A scalar becomes a one-element list. Blank string
// elements are dropped.
func SplitValues(v any) []any {
	switch t := v.(type) {
	case string:
		return splitStrings(strings.Split(t, ","))
	case []string:
		return splitStrings(t)
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s == "" {
					continue
				}
				item = s
			}
			out = append(out, item)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		if _, isBytes := v.([]byte); !isBytes {
			out := make([]any, rv.Len())
			for i := range out {
				out[i] = rv.Index(i).Interface()
			}
			return SplitValues(out)
		}
	}
	return []any{v}
}

func splitStrings(items []string) []any {
	out := make([]any, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// withKey attaches the condition key to a FilterError lacking one.
func withKey(err error, f *models.FilterEntry) error {
	var fe *models.FilterError
	if errors.As(err, &fe) {
		if fe.Key == "" {
			fe.Key = f.Key()
		}
		if fe.Path == "" {
			fe.Path = f.FieldPath
		}
		return fe
	}
	return fmt.Errorf("compile %s: %w", f.Key(), err)
}
