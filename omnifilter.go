// Package ofl compiles flat "<OPERATOR>_<fieldPath>" filter conditions into
// typed predicates and runs them against SQL, MongoDB, Redis or in-memory
// entity stores.
//
//	reg := schema.NewRegistry(schema.NewEntity("User").
//		Attr("name", mapping.KindString).
//		Attr("birthDate", mapping.KindDate))
//	q, err := ofl.New(reg).Compile("User",
//		models.Conditions{{Key: "LTE_birthDate", Value: "2020-05-01"}},
//		models.SortParams{{Field: "name", Ascending: true}}, nil)
package ofl

import (
	"log/slog"

	"github.com/omniql-engine/omnifilter/engine/ast"
	"github.com/omniql-engine/omnifilter/engine/compiler"
	"github.com/omniql-engine/omnifilter/engine/convert"
	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/engine/parser"
	"github.com/omniql-engine/omnifilter/engine/schema"
)

// Query is a compiled filter request.
type Query struct {
	models.Query
	Predicate *ast.PredicateNode
}

// Engine binds a schema registry to a compiler. Safe for concurrent use.
type Engine struct {
	registry *schema.Registry
	compiler *compiler.Compiler
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	conv   *convert.Service
	logger *slog.Logger
}

// WithConversions sets the conversion service used for coercion.
func WithConversions(conv *convert.Service) Option {
	return func(o *engineOptions) { o.conv = conv }
}

// WithLogger sets the logger of the engine and its compiler.
func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = l }
}

// New creates an engine over reg.
func New(reg *schema.Registry, opts ...Option) *Engine {
	o := &engineOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Engine{
		registry: reg,
		compiler: compiler.New(reg, o.conv, compiler.WithLogger(o.logger)),
		logger:   o.logger,
	}
}

// Registry returns the schema registry.
func (e *Engine) Registry() *schema.Registry {
	return e.registry
}

// Compiler returns the predicate compiler.
func (e *Engine) Compiler() *compiler.Compiler {
	return e.compiler
}

// Compile parses conds, compiles them for entity and builds the sort.
// Every sorted field must resolve to an ordered attribute.
func (e *Engine) Compile(entity string, conds models.Conditions, sorts models.SortParams, page *models.Page) (*Query, error) {
	ent, err := e.registry.Entity(entity)
	if err != nil {
		return nil, err
	}

	filters, err := parser.ParseFilters(conds)
	if err != nil {
		return nil, err
	}
	pred, err := e.compiler.Compile(entity, filters)
	if err != nil {
		return nil, err
	}

	sort := compiler.BuildSort(sorts)
	if err := e.compiler.ValidateSort(entity, sort); err != nil {
		return nil, err
	}

	return &Query{
		Query: models.Query{
			Entity:  ent.Name,
			Table:   ent.Table,
			Filters: filters,
			Sort:    sort,
			Page:    page,
		},
		Predicate: pred,
	}, nil
}

// ============================================================================
// STATELESS ENTRY POINTS
// ============================================================================

// ParseFilters decodes a condition set into filter entries.
func ParseFilters(conds models.Conditions) ([]*models.FilterEntry, error) {
	return parser.ParseFilters(conds)
}

// CompilePredicate compiles filters for entity against resolver with the
// default conversion service.
func CompilePredicate(resolver compiler.AttributeResolver, entity string, filters []*models.FilterEntry) (*ast.PredicateNode, error) {
	return compiler.New(resolver, nil).Compile(entity, filters)
}

// BuildSort converts ordered sort params into a sort specification; nil for none.
func BuildSort(params models.SortParams) *models.Sort {
	return compiler.BuildSort(params)
}
