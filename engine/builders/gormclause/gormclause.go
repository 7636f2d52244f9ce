// Package gormclause renders predicates as GORM clause expressions, so a
// compiled filter can be applied to any *gorm.DB chain.
package gormclause

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/omniql-engine/omnifilter/engine/ast"
	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/mapping"
)

// Column maps an attribute path onto a clause column: top-level paths are
// qualified with the current table, nested ones with their parent segments.
func Column(path string) clause.Column {
	col := mapping.ColumnName(path)
	if i := strings.LastIndex(col, "."); i >= 0 {
		return clause.Column{Table: col[:i], Name: col[i+1:]}
	}
	return clause.Column{Table: clause.CurrentTable, Name: col}
}

// Build renders node. The universal predicate yields nil.
func Build(node *ast.PredicateNode) clause.Expression {
	if node.IsTrue() {
		return nil
	}

	switch node.Kind {
	case ast.KindAnd:
		exprs := make([]clause.Expression, 0, len(node.Children))
		for _, c := range node.Children {
			if e := Build(c); e != nil {
				exprs = append(exprs, e)
			}
		}
		if len(exprs) == 0 {
			return nil
		}
		return clause.And(exprs...)

	case ast.KindNot:
		inner := Build(node.Children[0])
		if inner == nil {
			return clause.Expr{SQL: "1=0"}
		}
		return clause.Not(inner)

	case ast.KindCompare:
		return compare(Column(node.Path), node.Op, node.Value)

	case ast.KindLike:
		like := clause.Like{Column: Column(node.Path), Value: node.Pattern}
		if node.Negated {
			return clause.Not(like)
		}
		return like

	case ast.KindNull:
		if node.Negated {
			return clause.Neq{Column: Column(node.Path), Value: nil}
		}
		return clause.Eq{Column: Column(node.Path), Value: nil}

	case ast.KindIn:
		return clause.IN{Column: Column(node.Path), Values: node.Values}
	}
	return nil
}

func compare(col clause.Column, op ast.CompareOp, v any) clause.Expression {
	switch op {
	case ast.OpNe:
		return clause.Neq{Column: col, Value: v}
	case ast.OpGt:
		return clause.Gt{Column: col, Value: v}
	case ast.OpLt:
		return clause.Lt{Column: col, Value: v}
	case ast.OpGte:
		return clause.Gte{Column: col, Value: v}
	case ast.OpLte:
		return clause.Lte{Column: col, Value: v}
	}
	return clause.Eq{Column: col, Value: v}
}

// OrderBy renders directives in order.
func OrderBy(sort *models.Sort) clause.OrderBy {
	cols := make([]clause.OrderByColumn, 0, sort.Len())
	if sort != nil {
		for _, d := range sort.Directives {
			cols = append(cols, clause.OrderByColumn{
				Column: Column(d.Field),
				Desc:   !d.Ascending(),
			})
		}
	}
	return clause.OrderBy{Columns: cols}
}

// Scope applies predicate, sort and page to a query chain:
//
//	db.Model(&User{}).Scopes(gormclause.Scope(node, sort, page)).Find(&users)
func Scope(node *ast.PredicateNode, sort *models.Sort, page *models.Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if expr := Build(node); expr != nil {
			db = db.Clauses(clause.Where{Exprs: []clause.Expression{expr}})
		}
		if sort.Len() > 0 {
			db = db.Clauses(OrderBy(sort))
		}
		if page.Paged() {
			db = db.Limit(page.Limit()).Offset(page.Offset())
		}
		return db
	}
}
