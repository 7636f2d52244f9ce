package translator

import (
	"github.com/omniql-engine/omnifilter/engine/ast"
	"github.com/omniql-engine/omnifilter/engine/builders/relational"
	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/engine/schema"
	"github.com/omniql-engine/omnifilter/mapping"
)

// RelationalQuery is a parameterized SELECT plus its literal form.
type RelationalQuery struct {
	SQL     string // placeholders bound by Args
	Args    []any
	Where   string // WHERE body without the keyword, "1=1" for no filters
	Inline  string // SQL with literal values, for logs and validation
	Count   string // COUNT(*) over the same predicate
	Dialect string
}

// TranslateRelational renders query for PostgreSQL, MySQL or SQLite.
func TranslateRelational(query *models.Query, node *ast.PredicateNode, dbType string, o *Options) (*RelationalQuery, error) {
	d, err := relational.DialectFor(dbType)
	if err != nil {
		return nil, err
	}

	column, joins := o.Column, []relational.Join(nil)
	if column == nil && o.Registry != nil {
		column, joins, err = planJoins(o.Registry, query, node)
		if err != nil {
			return nil, err
		}
	}

	b := &relational.Builder{Dialect: d, Column: column, Joins: joins}
	sql, args := b.Select(query.Table, node, query.Sort, query.Page)
	where, _ := b.Where(node, 1)
	count, _ := b.Count(query.Table, node)

	inline := &relational.Builder{Dialect: d, Column: column, Joins: joins, Inline: true}
	inlineSQL, _ := inline.Select(query.Table, node, query.Sort, query.Page)

	return &RelationalQuery{
		SQL:     sql,
		Args:    args,
		Where:   where,
		Inline:  inlineSQL,
		Count:   count,
		Dialect: d.Name,
	}, nil
}

// planJoins resolves every filtered and sorted path of query. Each reference
// hop becomes one LEFT JOIN, shared by all paths through it. Once anything
// is joined, root columns are qualified with the table.
func planJoins(reg *schema.Registry, query *models.Query, node *ast.PredicateNode) (func(string) string, []relational.Join, error) {
	paths := append(node.Paths(), query.SortFields()...)

	type resolved struct {
		alias  string
		column string
	}
	columns := make(map[string]resolved, len(paths))
	var joins []relational.Join
	seen := map[string]bool{}

	for _, path := range paths {
		if _, ok := columns[path]; ok {
			continue
		}
		hops, col, err := reg.Hops(query.Entity, path)
		if err != nil {
			return nil, nil, err
		}
		for _, h := range hops {
			if seen[h.Alias] {
				continue
			}
			seen[h.Alias] = true
			owner := h.Parent
			if owner == "" {
				owner = query.Table
			}
			joins = append(joins, relational.Join{
				Table: h.Table,
				Alias: h.Alias,
				Left:  owner + "." + h.JoinColumn,
				Right: h.Alias + "." + h.RefColumn,
			})
		}
		r := resolved{column: col}
		if len(hops) > 0 {
			r.alias = hops[len(hops)-1].Alias
		}
		columns[path] = r
	}

	qualify := len(joins) > 0
	return func(path string) string {
		r, ok := columns[path]
		if !ok {
			return mapping.ColumnName(path)
		}
		switch {
		case r.alias != "":
			return r.alias + "." + r.column
		case qualify:
			return query.Table + "." + r.column
		}
		return r.column
	}, joins, nil
}

func (q *RelationalQuery) String() string {
	return q.Inline
}
