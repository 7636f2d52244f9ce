package translator

import (
	"fmt"
	"strings"

	"github.com/omniql-engine/omnifilter/engine/ast"
	redisbuilders "github.com/omniql-engine/omnifilter/engine/builders/redis"
	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/mapping"
)

// KeyValueQuery scans hashes under Pattern and matches them in memory.
type KeyValueQuery struct {
	Command   string // always SCAN; HGETALL per key follows
	Pattern   string
	Predicate *ast.PredicateNode
	Kinds     map[string]mapping.Kind // attribute kinds referenced by Predicate
	Sort      *models.Sort
	Page      *models.Page
}

// TranslateRedis builds the scan pattern of the entity's hashes. Keys are
// laid out as "<table>:<id>", or "tenant:<tenant>:<table>:<id>" with a tenant.
func TranslateRedis(query *models.Query, node *ast.PredicateNode, tenantID string) *KeyValueQuery {
	return &KeyValueQuery{
		Command:   "SCAN",
		Pattern:   buildRedisKeyPattern(tenantID, query.Table),
		Predicate: node,
		Kinds:     redisbuilders.PathKinds(node),
		Sort:      query.Sort,
		Page:      query.Page,
	}
}

func buildRedisKeyPattern(tenantID, table string) string {
	table = strings.ToLower(table)
	if tenantID == "" {
		return table + ":*"
	}
	return fmt.Sprintf("tenant:%s:%s:*", tenantID, table)
}

// String renders the command sequence for display.
func (q *KeyValueQuery) String() string {
	s := fmt.Sprintf("SCAN 0 MATCH %s | HGETALL <key> | MATCH %s", q.Pattern, q.Predicate.String())
	if q.Sort.Len() > 0 {
		parts := make([]string, len(q.Sort.Directives))
		for i, d := range q.Sort.Directives {
			parts[i] = d.Field + " " + string(d.Direction)
		}
		s += " | SORT " + strings.Join(parts, ", ")
	}
	if q.Page.Paged() {
		s += fmt.Sprintf(" | LIMIT %d %d", q.Page.Offset(), q.Page.Limit())
	}
	return s
}
