package reverse

import (
	"fmt"
	"sort"

	"github.com/pingcap/tidb/parser"
	"github.com/pingcap/tidb/parser/ast"
	"github.com/pingcap/tidb/parser/opcode"
	"github.com/pingcap/tidb/parser/test_driver"

	"github.com/omniql-engine/omnifilter/mapping"
)

// ============================================================================
// ENTRY POINT
// ============================================================================

func (c *collector) mysql(sql string) error {
	stmts, _, err := parser.New().Parse(sql, "", "")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrParseError, err)
	}
	if len(stmts) == 0 {
		return fmt.Errorf("%w: empty statement", ErrParseError)
	}

	sel, ok := stmts[0].(*ast.SelectStmt)
	if !ok {
		return fmt.Errorf("%w: not a SELECT statement", ErrNotSupported)
	}
	if sel.Where == nil {
		return nil
	}
	numberMarkers(sel.Where)
	return c.mysqlConjunction(sel.Where)
}

// markerVisitor collects placeholders. The parser leaves their Order unset.
type markerVisitor struct {
	markers []*test_driver.ParamMarkerExpr
}

func (v *markerVisitor) Enter(n ast.Node) (ast.Node, bool) {
	if m, ok := n.(*test_driver.ParamMarkerExpr); ok {
		v.markers = append(v.markers, m)
	}
	return n, false
}

func (v *markerVisitor) Leave(n ast.Node) (ast.Node, bool) {
	return n, true
}

// numberMarkers orders placeholders by their position in the source text.
func numberMarkers(where ast.ExprNode) {
	v := &markerVisitor{}
	where.Accept(v)
	sort.Slice(v.markers, func(i, j int) bool { return v.markers[i].Offset < v.markers[j].Offset })
	for i, m := range v.markers {
		m.Order = i
	}
}

// ============================================================================
// CONDITIONS
// ============================================================================

var mysqlComparisons = map[opcode.Op]mapping.Operator{
	opcode.EQ: mapping.EQ,
	opcode.NE: mapping.NOTEQ,
	opcode.LT: mapping.LT,
	opcode.GT: mapping.GT,
	opcode.LE: mapping.LTE,
	opcode.GE: mapping.GTE,
}

func (c *collector) mysqlConjunction(expr ast.ExprNode) error {
	switch e := expr.(type) {
	case nil:
		return nil
	case *ast.ParenthesesExpr:
		return c.mysqlConjunction(e.Expr)
	case *ast.BinaryOperationExpr:
		switch e.Op {
		case opcode.LogicAnd:
			if err := c.mysqlConjunction(e.L); err != nil {
				return err
			}
			return c.mysqlConjunction(e.R)
		case opcode.LogicOr, opcode.LogicXor:
			return fmt.Errorf("%w: %s", ErrNotSupported, e.Op)
		}
	}
	t, err := c.mysqlTerm(expr)
	if err != nil {
		return err
	}
	c.add(t)
	return nil
}

func (c *collector) mysqlTerm(expr ast.ExprNode) (term, error) {
	switch e := expr.(type) {
	case *ast.ParenthesesExpr:
		return c.mysqlTerm(e.Expr)

	case *ast.UnaryOperationExpr:
		if e.Op != opcode.Not {
			return term{}, fmt.Errorf("%w: unary %s", ErrNotSupported, e.Op)
		}
		inner, err := c.mysqlTerm(e.V)
		if err != nil {
			return term{}, err
		}
		return not(inner)

	case *ast.BinaryOperationExpr:
		cmp, ok := mysqlComparisons[e.Op]
		if !ok {
			return term{}, fmt.Errorf("%w: operator %s", ErrNotSupported, e.Op)
		}
		lpath, lval, err := c.mysqlOperand(e.L)
		if err != nil {
			return term{}, err
		}
		rpath, rval, err := c.mysqlOperand(e.R)
		if err != nil {
			return term{}, err
		}
		return comparison(cmp, lpath, lval, rpath, rval)

	case *ast.IsNullExpr:
		path, err := c.mysqlColumn(e.Expr)
		if err != nil {
			return term{}, err
		}
		if e.Not {
			return term{op: mapping.NOTNULL, path: path, value: nullValue}, nil
		}
		return term{op: mapping.NULL, path: path, value: nullValue}, nil

	case *ast.PatternInExpr:
		if e.Sel != nil {
			return term{}, fmt.Errorf("%w: IN subquery", ErrNotSupported)
		}
		path, err := c.mysqlColumn(e.Expr)
		if err != nil {
			return term{}, err
		}
		items := make([]any, 0, len(e.List))
		for _, item := range e.List {
			v, err := c.mysqlValue(item)
			if err != nil {
				return term{}, err
			}
			items = append(items, v)
		}
		in := mapping.IN
		if e.Not {
			in = mapping.NOTIN
		}
		return term{op: in, path: path, value: listValue(items)}, nil

	case *ast.PatternLikeOrIlikeExpr:
		if !e.IsLike {
			return term{}, fmt.Errorf("%w: ILIKE", ErrNotSupported)
		}
		path, err := c.mysqlColumn(e.Expr)
		if err != nil {
			return term{}, err
		}
		v, err := c.mysqlValue(e.Pattern)
		if err != nil {
			return term{}, err
		}
		pattern, ok := v.(string)
		if !ok {
			return term{}, fmt.Errorf("%w: LIKE pattern %v", ErrNotSupported, v)
		}
		like, value, err := likeOperator(pattern, e.Not)
		if err != nil {
			return term{}, err
		}
		return term{op: like, path: path, value: value}, nil
	}
	return term{}, fmt.Errorf("%w: unknown condition type %T", ErrNotSupported, expr)
}

// ============================================================================
// OPERANDS
// ============================================================================

func (c *collector) mysqlOperand(expr ast.ExprNode) (string, any, error) {
	if _, ok := unparen(expr).(*ast.ColumnNameExpr); ok {
		path, err := c.mysqlColumn(expr)
		return path, nil, err
	}
	v, err := c.mysqlValue(expr)
	return "", v, err
}

func (c *collector) mysqlColumn(expr ast.ExprNode) (string, error) {
	col, ok := unparen(expr).(*ast.ColumnNameExpr)
	if !ok {
		return "", fmt.Errorf("%w: expected a column reference", ErrNotSupported)
	}
	return fieldPath(col.Name.Schema.O, col.Name.Table.O, col.Name.Name.O), nil
}

func (c *collector) mysqlValue(expr ast.ExprNode) (any, error) {
	switch e := unparen(expr).(type) {
	case *test_driver.ParamMarkerExpr:
		return c.param(e.Order + 1)
	case *test_driver.ValueExpr:
		return mysqlDatum(e)
	case *ast.UnaryOperationExpr:
		if e.Op == opcode.Minus {
			v, err := c.mysqlValue(e.V)
			if err != nil {
				return nil, err
			}
			if s, ok := v.(string); ok {
				return "-" + s, nil
			}
		}
		return nil, fmt.Errorf("%w: unary %s", ErrNotSupported, e.Op)
	}
	return nil, fmt.Errorf("%w: operand is not a literal", ErrNotSupported)
}

func mysqlDatum(val *test_driver.ValueExpr) (any, error) {
	d := val.Datum
	switch d.Kind() {
	case test_driver.KindNull:
		return nil, fmt.Errorf("%w: comparison with NULL, use IS NULL", ErrNotSupported)
	case test_driver.KindInt64:
		return fmt.Sprintf("%d", d.GetInt64()), nil
	case test_driver.KindUint64:
		return fmt.Sprintf("%d", d.GetUint64()), nil
	case test_driver.KindFloat64:
		return fmt.Sprintf("%v", d.GetFloat64()), nil
	case test_driver.KindString:
		return d.GetString(), nil
	case test_driver.KindBytes:
		return string(d.GetBytes()), nil
	case test_driver.KindMysqlDecimal:
		return d.GetMysqlDecimal().String(), nil
	}
	return fmt.Sprintf("%v", d.GetValue()), nil
}

func unparen(expr ast.ExprNode) ast.ExprNode {
	for {
		p, ok := expr.(*ast.ParenthesesExpr)
		if !ok {
			return expr
		}
		expr = p.Expr
	}
}
