// client.go

package ofl

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/omniql-engine/omnifilter/engine/ast"
	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/engine/schema"
)

// ============================================
// EXECUTOR
// ============================================

// Executor runs a compiled predicate against one entity store. A nil sort
// leaves ordering to the store; a nil page returns every match.
type Executor interface {
	Execute(ctx context.Context, entity *schema.Entity, node *ast.PredicateNode, sort *models.Sort, page *models.Page) ([]map[string]any, error)
}

// ============================================
// CLIENT STRUCT
// ============================================

// Client compiles condition sets and hands them to an executor.
type Client struct {
	engine   *Engine
	executor Executor
	logger   *slog.Logger
}

// NewClient creates a client over an arbitrary executor.
func NewClient(reg *schema.Registry, exec Executor, opts ...Option) *Client {
	e := New(reg, opts...)
	return &Client{engine: e, executor: exec, logger: e.logger}
}

// ============================================
// CONSTRUCTORS
// ============================================

// WrapSQL wraps a SQL database connection (PostgreSQL, MySQL or SQLite)
func WrapSQL(db *sql.DB, dbType string, reg *schema.Registry, opts ...Option) (*Client, error) {
	exec, err := NewSQLExecutor(db, dbType, reg)
	if err != nil {
		return nil, err
	}
	return NewClient(reg, exec, opts...), nil
}

// WrapMongo wraps a MongoDB database connection
func WrapMongo(db *mongo.Database, reg *schema.Registry, opts ...Option) *Client {
	return NewClient(reg, NewMongoExecutor(db), opts...)
}

// WrapRedis wraps a Redis client connection. Hashes are read from
// "<table>:*", or "tenant:<tenantID>:<table>:*" with a tenant.
func WrapRedis(rdb redis.UniversalClient, tenantID string, reg *schema.Registry, opts ...Option) *Client {
	c := NewClient(reg, nil, opts...)
	c.executor = NewRedisExecutor(rdb, tenantID, c.engine.compiler.Conversions())
	return c
}

// WrapMemory wraps an in-memory record store.
func WrapMemory(store *MemoryExecutor, reg *schema.Registry, opts ...Option) *Client {
	return NewClient(reg, store, opts...)
}

// Engine returns the compiling engine.
func (c *Client) Engine() *Engine {
	return c.engine
}

// ============================================
// QUERY METHODS
// ============================================

// Find compiles the request and returns the matching records.
func (c *Client) Find(ctx context.Context, entity string, conds models.Conditions, sorts models.SortParams, page *models.Page) ([]map[string]any, error) {
	q, err := c.engine.Compile(entity, conds, sorts, page)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, q)
}

// Execute runs an already compiled query.
func (c *Client) Execute(ctx context.Context, q *Query) ([]map[string]any, error) {
	if c.executor == nil {
		return nil, fmt.Errorf("client has no executor")
	}
	ent, err := c.engine.registry.Entity(q.Entity)
	if err != nil {
		return nil, err
	}

	rows, err := c.executor.Execute(ctx, ent, q.Predicate, q.Sort, q.Page)
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w", q.Entity, err)
	}
	c.logger.Debug("executed query",
		"entity", q.Entity,
		"predicate", q.Predicate.String(),
		"rows", len(rows))
	return rows, nil
}
