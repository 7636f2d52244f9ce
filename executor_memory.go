package ofl

import (
	"context"
	"sync"

	"github.com/omniql-engine/omnifilter/engine/ast"
	"github.com/omniql-engine/omnifilter/engine/eval"
	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/engine/schema"
)

// MemoryExecutor keeps records per entity in process. Records are nested
// maps addressed by attribute path. Safe for concurrent use.
type MemoryExecutor struct {
	mu      sync.RWMutex
	records map[string][]map[string]any
}

// NewMemoryExecutor creates an empty store.
func NewMemoryExecutor() *MemoryExecutor {
	return &MemoryExecutor{records: make(map[string][]map[string]any)}
}

// Insert appends records for entity.
func (m *MemoryExecutor) Insert(entity string, records ...map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[entity] = append(m.records[entity], records...)
}

// Len returns the number of records stored for entity.
func (m *MemoryExecutor) Len(entity string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records[entity])
}

// Execute filters, sorts and pages a snapshot of the entity's records.
// Without a sort, insertion order is kept.
func (m *MemoryExecutor) Execute(ctx context.Context, entity *schema.Entity, node *ast.PredicateNode, sort *models.Sort, page *models.Page) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	matched := eval.Filter(node, m.records[entity.Name])
	m.mu.RUnlock()

	eval.SortRecords(matched, sort)
	return eval.Paginate(matched, page), nil
}
