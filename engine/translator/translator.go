// Package translator routes a compiled query to the renderer of one store.
package translator

import (
	"fmt"

	"github.com/omniql-engine/omnifilter/engine/ast"
	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/engine/schema"
	"github.com/omniql-engine/omnifilter/mapping"
)

// Result is the native form of a query. Exactly one of the store fields is set.
type Result struct {
	DBType     string
	Relational *RelationalQuery
	Document   *DocumentQuery
	KeyValue   *KeyValueQuery
	Memory     *MemoryQuery
}

// MemoryQuery is a predicate matched against in-process records.
type MemoryQuery struct {
	Entity    string
	Predicate *ast.PredicateNode
	Sort      *models.Sort
	Page      *models.Page
}

// Options tune rendering.
type Options struct {
	// Column maps an attribute path to its column path for SQL stores.
	// Defaults to mapping.ColumnName.
	Column func(path string) string
	// TenantID prefixes Redis key patterns.
	TenantID string
	// Registry resolves columns and reference joins for SQL stores. An
	// explicit Column mapping takes precedence.
	Registry *schema.Registry
}

// Option configures Options.
type Option func(*Options)

// WithColumns sets the SQL column mapping.
func WithColumns(fn func(path string) string) Option {
	return func(o *Options) { o.Column = fn }
}

// WithTenant sets the tenant used in Redis key patterns.
func WithTenant(tenantID string) Option {
	return func(o *Options) { o.TenantID = tenantID }
}

// WithRegistry resolves SQL columns through reg and joins the tables behind
// nested paths.
func WithRegistry(reg *schema.Registry) Option {
	return func(o *Options) { o.Registry = reg }
}

// Translate routes query to the appropriate store renderer.
func Translate(query *models.Query, node *ast.PredicateNode, dbType string, opts ...Option) (*Result, error) {
	// Validate database type using mapping
	if !mapping.IsSupportedDatabase(dbType) {
		return nil, fmt.Errorf("unsupported database type: %s (supported: %v)", dbType, mapping.SupportedDatabases)
	}
	if query == nil {
		return nil, fmt.Errorf("query is nil")
	}

	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}

	switch dbType {
	case "PostgreSQL", "MySQL", "SQLite":
		rel, err := TranslateRelational(query, node, dbType, o)
		if err != nil {
			return nil, err
		}
		return &Result{DBType: dbType, Relational: rel}, nil

	case "MongoDB":
		return &Result{DBType: dbType, Document: TranslateMongoDB(query, node)}, nil

	case "Redis":
		return &Result{DBType: dbType, KeyValue: TranslateRedis(query, node, o.TenantID)}, nil

	case "Memory":
		return &Result{DBType: dbType, Memory: &MemoryQuery{
			Entity:    query.Entity,
			Predicate: node,
			Sort:      query.Sort,
			Page:      query.Page,
		}}, nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// String renders the native query for display.
func (r *Result) String() string {
	switch {
	case r.Relational != nil:
		return r.Relational.String()
	case r.Document != nil:
		return r.Document.String()
	case r.KeyValue != nil:
		return r.KeyValue.String()
	case r.Memory != nil:
		return "MATCH " + r.Memory.Predicate.String()
	}
	return ""
}
