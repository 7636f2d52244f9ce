package relational

import (
	"fmt"
	"strings"

	"github.com/omniql-engine/omnifilter/engine/ast"
	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/mapping"
)

// ============================================================================
// SELECT
// ============================================================================

// OrderBy renders " ORDER BY ..." or "" for a nil sort.
func OrderBy(d *Dialect, sort *models.Sort) string {
	return (&Builder{Dialect: d}).OrderBy(sort)
}

// OrderBy renders the sort through the builder's column mapping.
func (b *Builder) OrderBy(sort *models.Sort) string {
	if sort.Len() == 0 {
		return ""
	}
	w := &writer{b: b}
	parts := make([]string, len(sort.Directives))
	for i, dir := range sort.Directives {
		parts[i] = fmt.Sprintf("%s %s", w.column(dir.Field), dir.Direction)
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// Limit renders " LIMIT n OFFSET m" or "" when unpaged.
func (d *Dialect) Limit(page *models.Page) string {
	if !page.Paged() {
		return ""
	}
	sql := fmt.Sprintf(" LIMIT %d", page.Limit())
	if page.Offset() > 0 {
		sql += fmt.Sprintf(" OFFSET %d", page.Offset())
	}
	return sql
}

// Select renders a complete SELECT over table.
func Select(d *Dialect, table string, node *ast.PredicateNode, sort *models.Sort, page *models.Page) (string, []any) {
	return (&Builder{Dialect: d}).Select(table, node, sort, page)
}

// Select renders a complete SELECT over table. The universal predicate
// omits the WHERE clause.
func (b *Builder) Select(table string, node *ast.PredicateNode, sort *models.Sort, page *models.Page) (string, []any) {
	projection := "*"
	if len(b.Joins) > 0 {
		projection = b.Dialect.QuoteIdent(table) + ".*"
	}
	sql := "SELECT " + projection + b.from(table)
	args := []any{}
	if !node.IsTrue() {
		where, whereArgs := b.Where(node, 1)
		sql += " WHERE " + where
		args = whereArgs
	}
	sql += b.OrderBy(sort)
	sql += b.Dialect.Limit(page)
	return sql, args
}

// Count renders SELECT COUNT(*) for the predicate.
func (b *Builder) Count(table string, node *ast.PredicateNode) (string, []any) {
	sql := "SELECT COUNT(*)" + b.from(table)
	if node.IsTrue() {
		return sql, []any{}
	}
	where, args := b.Where(node, 1)
	return sql + " WHERE " + where, args
}

func (b *Builder) from(table string) string {
	d := b.Dialect
	sql := " FROM " + d.QuoteIdent(table)
	for _, j := range b.Joins {
		sql += fmt.Sprintf(" LEFT JOIN %s AS %s ON %s = %s",
			d.QuoteIdent(j.Table), d.QuoteIdent(j.Alias), d.QuotePath(j.Left), d.QuotePath(j.Right))
	}
	return sql
}

// ============================================================================
// BOOTSTRAP DDL / DML
// ============================================================================

// Column is one column of a bootstrap table.
type Column struct {
	Name string
	Kind mapping.Kind
}

// CreateTable renders CREATE TABLE IF NOT EXISTS with column types from
// mapping.TypeMap. Unmapped kinds fall back to the string type.
func (d *Dialect) CreateTable(table string, columns []Column) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		typ := mapping.ColumnType(d.Name, c.Kind)
		if typ == "" {
			typ = mapping.ColumnType(d.Name, mapping.KindString)
		}
		defs[i] = d.QuoteIdent(c.Name) + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", d.QuoteIdent(table), strings.Join(defs, ", "))
}

// Insert renders a parameterized INSERT of one row. Columns are written in
// the given order.
func (d *Dialect) Insert(table string, columns []string, values []any) (string, []any) {
	cols := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = d.QuoteIdent(c)
		placeholders[i] = d.Placeholder(i + 1)
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(table),
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "))
	return sql, values
}
