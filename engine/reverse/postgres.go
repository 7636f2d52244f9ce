package reverse

import (
	"fmt"
	"strconv"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v5"

	"github.com/omniql-engine/omnifilter/engine/validator"
	"github.com/omniql-engine/omnifilter/mapping"
)

// ============================================================================
// ENTRY POINTS
// ============================================================================

func (c *collector) postgres(sql string) error {
	tree, err := pg_query.Parse(sql)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrParseError, err)
	}
	if len(tree.Stmts) == 0 {
		return fmt.Errorf("%w: no statements", ErrParseError)
	}

	sel := tree.Stmts[0].Stmt.GetSelectStmt()
	if sel == nil {
		return fmt.Errorf("%w: not a SELECT statement", ErrNotSupported)
	}
	if sel.Op != pg_query.SetOperation_SETOP_NONE {
		return fmt.Errorf("%w: set operation", ErrNotSupported)
	}
	return c.pgConjunction(sel.WhereClause)
}

// sqlite parses through the PostgreSQL grammar once '?' placeholders are numbered.
func (c *collector) sqlite(sql string) error {
	return c.postgres(validator.NumberPlaceholders(sql))
}

// ============================================================================
// CONDITIONS
// ============================================================================

func (c *collector) pgConjunction(node *pg_query.Node) error {
	if node == nil {
		return nil
	}
	if be := node.GetBoolExpr(); be != nil {
		switch be.Boolop {
		case pg_query.BoolExprType_AND_EXPR:
			for _, arg := range be.Args {
				if err := c.pgConjunction(arg); err != nil {
					return err
				}
			}
			return nil
		case pg_query.BoolExprType_OR_EXPR:
			return fmt.Errorf("%w: OR", ErrNotSupported)
		}
	}
	t, err := c.pgTerm(node)
	if err != nil {
		return err
	}
	c.add(t)
	return nil
}

func (c *collector) pgTerm(node *pg_query.Node) (term, error) {
	switch {
	case node.GetBoolExpr() != nil:
		be := node.GetBoolExpr()
		if be.Boolop != pg_query.BoolExprType_NOT_EXPR || len(be.Args) != 1 {
			return term{}, fmt.Errorf("%w: nested %s", ErrNotSupported, be.Boolop)
		}
		inner, err := c.pgTerm(be.Args[0])
		if err != nil {
			return term{}, err
		}
		return not(inner)

	case node.GetNullTest() != nil:
		nt := node.GetNullTest()
		path, err := c.pgColumn(nt.Arg)
		if err != nil {
			return term{}, err
		}
		if nt.Nulltesttype == pg_query.NullTestType_IS_NOT_NULL {
			return term{op: mapping.NOTNULL, path: path, value: nullValue}, nil
		}
		return term{op: mapping.NULL, path: path, value: nullValue}, nil

	case node.GetAExpr() != nil:
		return c.pgAExpr(node.GetAExpr())
	}
	return term{}, fmt.Errorf("%w: unknown condition type", ErrNotSupported)
}

func (c *collector) pgAExpr(expr *pg_query.A_Expr) (term, error) {
	op := ""
	if len(expr.Name) > 0 {
		if str := expr.Name[0].GetString_(); str != nil {
			op = str.Sval
		}
	}

	switch expr.Kind {
	case pg_query.A_Expr_Kind_AEXPR_OP:
		cmp, ok := comparisonOperators[op]
		if !ok {
			return term{}, fmt.Errorf("%w: operator %s", ErrNotSupported, op)
		}
		lpath, lval, err := c.pgOperand(expr.Lexpr)
		if err != nil {
			return term{}, err
		}
		rpath, rval, err := c.pgOperand(expr.Rexpr)
		if err != nil {
			return term{}, err
		}
		return comparison(cmp, lpath, lval, rpath, rval)

	case pg_query.A_Expr_Kind_AEXPR_IN:
		path, err := c.pgColumn(expr.Lexpr)
		if err != nil {
			return term{}, err
		}
		list := expr.Rexpr.GetList()
		if list == nil {
			return term{}, fmt.Errorf("%w: IN without a value list", ErrNotSupported)
		}
		items := make([]any, 0, len(list.Items))
		for _, item := range list.Items {
			v, err := c.pgValue(item)
			if err != nil {
				return term{}, err
			}
			items = append(items, v)
		}
		in := mapping.IN
		if op == "<>" {
			in = mapping.NOTIN
		}
		return term{op: in, path: path, value: listValue(items)}, nil

	case pg_query.A_Expr_Kind_AEXPR_LIKE:
		path, err := c.pgColumn(expr.Lexpr)
		if err != nil {
			return term{}, err
		}
		v, err := c.pgValue(expr.Rexpr)
		if err != nil {
			return term{}, err
		}
		pattern, ok := v.(string)
		if !ok {
			return term{}, fmt.Errorf("%w: LIKE pattern %v", ErrNotSupported, v)
		}
		like, value, err := likeOperator(pattern, op == "!~~")
		if err != nil {
			return term{}, err
		}
		return term{op: like, path: path, value: value}, nil
	}
	return term{}, fmt.Errorf("%w: expression kind %s", ErrNotSupported, expr.Kind)
}

// ============================================================================
// OPERANDS
// ============================================================================

// pgOperand returns the attribute path of a column reference, or the value
// of anything else.
func (c *collector) pgOperand(node *pg_query.Node) (string, any, error) {
	if node != nil && node.GetColumnRef() != nil {
		path, err := c.pgColumn(node)
		return path, nil, err
	}
	v, err := c.pgValue(node)
	return "", v, err
}

func (c *collector) pgColumn(node *pg_query.Node) (string, error) {
	if node == nil || node.GetColumnRef() == nil {
		return "", fmt.Errorf("%w: expected a column reference", ErrNotSupported)
	}
	var parts []string
	for _, f := range node.GetColumnRef().Fields {
		str := f.GetString_()
		if str == nil {
			return "", fmt.Errorf("%w: column wildcard", ErrNotSupported)
		}
		parts = append(parts, str.Sval)
	}
	return fieldPath(parts...), nil
}

func (c *collector) pgValue(node *pg_query.Node) (any, error) {
	switch {
	case node == nil:
		return nil, fmt.Errorf("%w: missing operand", ErrParseError)
	case node.GetTypeCast() != nil:
		return c.pgValue(node.GetTypeCast().Arg)
	case node.GetParamRef() != nil:
		return c.param(int(node.GetParamRef().Number))
	case node.GetAConst() != nil:
		return pgConst(node.GetAConst())
	}
	return nil, fmt.Errorf("%w: operand is not a literal", ErrNotSupported)
}

func pgConst(k *pg_query.A_Const) (any, error) {
	switch {
	case k.Isnull:
		return nil, fmt.Errorf("%w: comparison with NULL, use IS NULL", ErrNotSupported)
	case k.GetIval() != nil:
		return strconv.FormatInt(int64(k.GetIval().Ival), 10), nil
	case k.GetFval() != nil:
		return k.GetFval().Fval, nil
	case k.GetSval() != nil:
		return k.GetSval().Sval, nil
	case k.GetBoolval() != nil:
		return strconv.FormatBool(k.GetBoolval().Boolval), nil
	case k.GetBsval() != nil:
		return strings.TrimPrefix(k.GetBsval().Bsval, "b"), nil
	}
	return nil, fmt.Errorf("%w: constant", ErrNotSupported)
}
