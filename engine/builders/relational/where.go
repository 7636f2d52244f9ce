package relational

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omniql-engine/omnifilter/engine/ast"
	"github.com/omniql-engine/omnifilter/mapping"
)

// ============================================================================
// WHERE CLAUSE
// ============================================================================

var compareOperators = map[ast.CompareOp]mapping.Operator{
	ast.OpEq:  mapping.EQ,
	ast.OpNe:  mapping.NOTEQ,
	ast.OpGt:  mapping.GT,
	ast.OpLt:  mapping.LT,
	ast.OpGte: mapping.GTE,
	ast.OpLte: mapping.LTE,
}

// Builder renders predicate trees for one dialect.
type Builder struct {
	Dialect *Dialect
	// Column maps an attribute path to its column path. Defaults to
	// mapping.ColumnName.
	Column func(path string) string
	// Inline renders values as SQL literals instead of bind parameters.
	Inline bool
	// Joins are LEFT JOINed after the FROM table. SELECT then projects the
	// FROM table's columns only.
	Joins []Join
}

// Join reaches a referenced table: LEFT JOIN Table AS Alias ON Left = Right.
// Left and Right are dotted column paths such as orders.user_id and user.id.
type Join struct {
	Table string
	Alias string
	Left  string
	Right string
}

// Build renders node as a parameterized WHERE expression (without the
// WHERE keyword). Placeholders are numbered from startParam.
func Build(d *Dialect, node *ast.PredicateNode, startParam int) (string, []any) {
	return (&Builder{Dialect: d}).Where(node, startParam)
}

// Inline renders node with literal values, for logging, validation and
// reverse translation.
func Inline(d *Dialect, node *ast.PredicateNode) string {
	where, _ := (&Builder{Dialect: d, Inline: true}).Where(node, 1)
	return where
}

// Where renders node. The universal predicate renders as 1=1.
func (b *Builder) Where(node *ast.PredicateNode, startParam int) (string, []any) {
	w := &writer{b: b, param: startParam, args: []any{}}
	if node.IsTrue() {
		return "1=1", w.args
	}
	if node.Kind == ast.KindAnd {
		parts := make([]string, len(node.Children))
		for i, c := range node.Children {
			parts[i] = w.render(c)
		}
		return strings.Join(parts, " AND "), w.args
	}
	return w.render(node), w.args
}

type writer struct {
	b     *Builder
	param int
	args  []any
}

func (w *writer) column(path string) string {
	col := mapping.ColumnName(path)
	if w.b.Column != nil {
		col = w.b.Column(path)
	}
	return w.b.Dialect.QuotePath(col)
}

func (w *writer) value(v any) string {
	if w.b.Inline {
		return FormatLiteral(v)
	}
	w.args = append(w.args, v)
	ph := w.b.Dialect.Placeholder(w.param)
	w.param++
	return ph
}

func (w *writer) render(node *ast.PredicateNode) string {
	d := w.b.Dialect
	switch node.Kind {
	case ast.KindTrue:
		return "1=1"

	case ast.KindAnd:
		if len(node.Children) == 0 {
			return "1=1"
		}
		parts := make([]string, len(node.Children))
		for i, c := range node.Children {
			parts[i] = w.render(c)
		}
		return "(" + strings.Join(parts, " AND ") + ")"

	case ast.KindNot:
		return "NOT (" + w.render(node.Children[0]) + ")"

	case ast.KindCompare:
		op := d.operator(compareOperators[node.Op])
		return fmt.Sprintf("%s %s %s", w.column(node.Path), op, w.value(node.Value))

	case ast.KindLike:
		op := d.operator(mapping.LIKE)
		if node.Negated {
			op = d.operator(mapping.NLIKE)
		}
		return fmt.Sprintf("%s %s %s", w.column(node.Path), op, w.value(node.Pattern))

	case ast.KindNull:
		op := d.operator(mapping.NULL)
		if node.Negated {
			op = d.operator(mapping.NOTNULL)
		}
		return w.column(node.Path) + " " + op

	case ast.KindIn:
		if len(node.Values) == 0 {
			return "1=0"
		}
		items := make([]string, len(node.Values))
		for i, v := range node.Values {
			items[i] = w.value(v)
		}
		return fmt.Sprintf("%s %s (%s)", w.column(node.Path), d.operator(mapping.IN), strings.Join(items, ", "))
	}
	return "1=1"
}

// FormatLiteral formats a value as a SQL literal.
func FormatLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quoteString(x)
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return quoteString(x.Format(literalTimeLayout))
	case *time.Time:
		if x == nil {
			return "NULL"
		}
		return quoteString(x.Format(literalTimeLayout))
	case uuid.UUID:
		return quoteString(x.String())
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x)
	}
	return quoteString(fmt.Sprintf("%v", v))
}

// literalTimeLayout is accepted by every dialect and by the default date formats.
const literalTimeLayout = "2006-01-02 15:04:05"

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
