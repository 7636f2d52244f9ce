// Package reverse turns native WHERE clauses back into condition sets.
//
// Only what the condition model can express is accepted: a conjunction of
// comparisons, IN lists, LIKE patterns of the LIKE family and NULL checks.
// OR, functions, subqueries and arbitrary patterns fail with ErrNotSupported.
package reverse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/mapping"
)

var (
	ErrNotSupported = errors.New("not expressible as filter conditions")
	ErrParseError   = errors.New("failed to parse query")
	ErrEmptyQuery   = errors.New("empty query")
)

// wherePrefix wraps bare WHERE bodies into a statement the parsers accept.
const wherePrefix = "SELECT * FROM t WHERE "

// ToConditions parses sql for dbType and returns the conditions whose
// compilation yields an equivalent predicate. sql is either a full SELECT
// or a bare WHERE body; args resolve $n and ? placeholders in order.
//
// Values come back as strings (IN as []string) unless they were bound
// through args, in which case the argument is kept as given.
func ToConditions(sql, dbType string, args ...any) (models.Conditions, error) {
	sql = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sql), ";"))
	if sql == "" {
		return nil, ErrEmptyQuery
	}
	if !isSelect(sql) {
		sql = wherePrefix + sql
	}

	c := &collector{args: args}
	var err error
	switch dbType {
	case "PostgreSQL":
		err = c.postgres(sql)
	case "SQLite":
		err = c.sqlite(sql)
	case "MySQL":
		err = c.mysql(sql)
	default:
		return nil, fmt.Errorf("%w: unsupported database %s", ErrNotSupported, dbType)
	}
	if err != nil {
		return nil, err
	}
	return c.conds, nil
}

func isSelect(sql string) bool {
	fields := strings.Fields(sql)
	return len(fields) > 0 && strings.EqualFold(fields[0], "SELECT")
}

// collector accumulates conditions in source order.
type collector struct {
	args  []any
	conds models.Conditions
}

// term is one extracted condition. The zero term is a tautology and adds nothing.
type term struct {
	op    mapping.Operator
	path  string
	value any
}

func (c *collector) add(t term) {
	if t.op == "" {
		return
	}
	c.conds = append(c.conds, models.Condition{Key: string(t.op) + "_" + t.path, Value: t.value})
}

// not negates a single term.
func not(t term) (term, error) {
	if t.op == "" {
		return term{}, fmt.Errorf("%w: negated tautology", ErrNotSupported)
	}
	op, err := negate(t.op)
	if err != nil {
		return term{}, err
	}
	t.op = op
	return t, nil
}

// comparison builds a term from "left op right" where exactly one side is a
// column. Two constants must form a tautology.
func comparison(op mapping.Operator, leftPath string, left any, rightPath string, right any) (term, error) {
	switch {
	case leftPath != "" && rightPath == "":
		return term{op: op, path: leftPath, value: right}, nil
	case leftPath == "" && rightPath != "":
		return term{op: flipped[op], path: rightPath, value: left}, nil
	case leftPath == "" && rightPath == "":
		return term{}, tautology(op, left, right)
	}
	return term{}, fmt.Errorf("%w: column to column comparison", ErrNotSupported)
}

// nullValue is the value of NULL and NOTNULL conditions, which only need a non-blank one.
const nullValue = "1"

// tautology accepts constant comparisons that always hold, such as 1=1.
func tautology(op mapping.Operator, left, right any) error {
	if op == mapping.EQ && fmt.Sprint(left) == fmt.Sprint(right) {
		return nil
	}
	return fmt.Errorf("%w: constant comparison %v %s %v", ErrNotSupported, left, op, right)
}

// param resolves a 1-based placeholder.
func (c *collector) param(n int) (any, error) {
	if n < 1 || n > len(c.args) {
		return nil, fmt.Errorf("%w: placeholder %d has no argument (%d given)", ErrParseError, n, len(c.args))
	}
	return bound(c.args[n-1]), nil
}

// fieldPath maps identifier parts back onto an attribute path.
func fieldPath(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return mapping.FieldName(strings.Join(kept, "."))
}

var comparisonOperators = map[string]mapping.Operator{
	"=":  mapping.EQ,
	"<>": mapping.NOTEQ,
	"!=": mapping.NOTEQ,
	"<":  mapping.LT,
	">":  mapping.GT,
	"<=": mapping.LTE,
	">=": mapping.GTE,
}

// flipped is the operator for "value op column".
var flipped = map[mapping.Operator]mapping.Operator{
	mapping.EQ:    mapping.EQ,
	mapping.NOTEQ: mapping.NOTEQ,
	mapping.LT:    mapping.GT,
	mapping.GT:    mapping.LT,
	mapping.LTE:   mapping.GTE,
	mapping.GTE:   mapping.LTE,
}

// negated maps an operator onto its complement under NOT.
var negated = map[mapping.Operator]mapping.Operator{
	mapping.EQ:      mapping.NOTEQ,
	mapping.NOTEQ:   mapping.EQ,
	mapping.IN:      mapping.NOTIN,
	mapping.NOTIN:   mapping.IN,
	mapping.NULL:    mapping.NOTNULL,
	mapping.NOTNULL: mapping.NULL,
	mapping.RLIKE:   mapping.NLIKE,
	mapping.NLIKE:   mapping.RLIKE,
}

func negate(op mapping.Operator) (mapping.Operator, error) {
	if n, ok := negated[op]; ok {
		return n, nil
	}
	return "", fmt.Errorf("%w: NOT %s", ErrNotSupported, op)
}

// likeOperator picks the LIKE family member producing pattern. The value
// between the wildcards must not contain '%'.
func likeOperator(pattern string, not bool) (mapping.Operator, string, error) {
	unsupported := fmt.Errorf("%w: LIKE pattern %q", ErrNotSupported, pattern)

	var op mapping.Operator
	var value string
	switch {
	case len(pattern) >= 2 && strings.HasPrefix(pattern, "%") && strings.HasSuffix(pattern, "%"):
		op, value = mapping.LIKE, pattern[1:len(pattern)-1]
	case strings.HasPrefix(pattern, "%"):
		op, value = mapping.LLIKE, pattern[1:]
	case strings.HasSuffix(pattern, "%"):
		op, value = mapping.RLIKE, pattern[:len(pattern)-1]
	default:
		return "", "", unsupported
	}
	if value == "" || strings.Contains(value, "%") {
		return "", "", unsupported
	}
	if not {
		if op != mapping.RLIKE {
			return "", "", unsupported
		}
		op = mapping.NLIKE
	}
	return op, value, nil
}

// bound normalizes a placeholder argument. Byte slices from drivers read as text.
func bound(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// listValue collapses IN items to []string when every item is a string.
func listValue(items []any) any {
	strs := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return items
		}
		strs = append(strs, s)
	}
	return strs
}
