package ofl

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/omniql-engine/omnifilter/engine/ast"
	"github.com/omniql-engine/omnifilter/engine/builders/relational"
	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/engine/schema"
	"github.com/omniql-engine/omnifilter/engine/translator"
)

// SQLExecutor runs predicates through database/sql.
//
// Nested attribute paths LEFT JOIN the referenced tables, one alias per
// reference hop (see schema.Attribute.JoinColumn).
type SQLExecutor struct {
	db       *sql.DB
	dbType   string
	registry *schema.Registry
	// TimeLayout, when set, binds time.Time arguments as strings. SQLite
	// stores dates as TEXT, so its executor defaults to the literal layout
	// the relational builder uses.
	TimeLayout string
}

// NewSQLExecutor creates an executor for PostgreSQL, MySQL or SQLite.
func NewSQLExecutor(db *sql.DB, dbType string, reg *schema.Registry) (*SQLExecutor, error) {
	if _, err := relational.DialectFor(dbType); err != nil {
		return nil, err
	}
	e := &SQLExecutor{db: db, dbType: dbType, registry: reg}
	if dbType == relational.SQLite.Name {
		e.TimeLayout = "2006-01-02 15:04:05"
	}
	return e, nil
}

// Execute renders a SELECT over the entity's table and scans every row.
func (e *SQLExecutor) Execute(ctx context.Context, entity *schema.Entity, node *ast.PredicateNode, sort *models.Sort, page *models.Page) ([]map[string]any, error) {
	q := &models.Query{Entity: entity.Name, Table: entity.Table, Sort: sort, Page: page}
	res, err := translator.Translate(q, node, e.dbType, translator.WithRegistry(e.registry))
	if err != nil {
		return nil, fmt.Errorf("translation error: %w", err)
	}
	rel := res.Relational

	rows, err := e.db.QueryContext(ctx, rel.SQL, e.bind(rel.Args)...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()
	return rowsToMaps(rows)
}

func (e *SQLExecutor) bind(args []any) []any {
	if e.TimeLayout == "" {
		return args
	}
	out := make([]any, len(args))
	for i, a := range args {
		if t, ok := a.(time.Time); ok {
			out[i] = t.Format(e.TimeLayout)
			continue
		}
		out[i] = a
	}
	return out
}

// ============================================
// HELPERS
// ============================================

func rowsToMaps(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := []map[string]any{}

	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			val := values[i]
			if b, ok := val.([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = val
			}
		}
		results = append(results, row)
	}

	return results, rows.Err()
}
