package ofl

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/omniql-engine/omnifilter/engine/ast"
	redisbuilders "github.com/omniql-engine/omnifilter/engine/builders/redis"
	"github.com/omniql-engine/omnifilter/engine/convert"
	"github.com/omniql-engine/omnifilter/engine/eval"
	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/engine/schema"
	"github.com/omniql-engine/omnifilter/engine/translator"
	"github.com/omniql-engine/omnifilter/mapping"
)

// scanCount is the COUNT hint of each SCAN call.
const scanCount = 100

// RedisExecutor matches predicates against hashes. Each record is one hash
// whose fields are attribute paths ("name", "user.name").
type RedisExecutor struct {
	rdb      redis.UniversalClient
	tenantID string
	conv     *convert.Service
}

// NewRedisExecutor creates an executor. A nil conv uses the defaults.
func NewRedisExecutor(rdb redis.UniversalClient, tenantID string, conv *convert.Service) *RedisExecutor {
	if conv == nil {
		conv = convert.New()
	}
	return &RedisExecutor{rdb: rdb, tenantID: tenantID, conv: conv}
}

// Execute scans the entity's keys, keeps matching hashes, then sorts and
// pages in memory. Each result carries its key under "_key".
func (e *RedisExecutor) Execute(ctx context.Context, entity *schema.Entity, node *ast.PredicateNode, sort *models.Sort, page *models.Page) ([]map[string]any, error) {
	q := &models.Query{Entity: entity.Name, Table: entity.Table, Sort: sort, Page: page}
	res, err := translator.Translate(q, node, "Redis", translator.WithTenant(e.tenantID))
	if err != nil {
		return nil, fmt.Errorf("translation error: %w", err)
	}
	kv := res.KeyValue
	kinds := entityKinds(entity)
	matcher := redisbuilders.NewHashMatcher(kv.Predicate, e.conv)

	results := []map[string]any{}
	var cursor uint64
	for {
		keys, next, err := e.rdb.Scan(ctx, cursor, kv.Pattern, scanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}

		for _, k := range keys {
			hash, err := e.rdb.HGetAll(ctx, k).Result()
			if err != nil {
				return nil, fmt.Errorf("hgetall %s: %w", k, err)
			}
			if len(hash) == 0 || !matcher.Matches(hash) {
				continue
			}
			record := redisbuilders.HashToRecord(hash, kinds, e.conv)
			record["_key"] = k
			results = append(results, record)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	eval.SortRecords(results, kv.Sort)
	return eval.Paginate(results, kv.Page), nil
}

// entityKinds maps the entity's scalar attribute names to their kinds.
func entityKinds(entity *schema.Entity) map[string]mapping.Kind {
	kinds := make(map[string]mapping.Kind, len(entity.Attributes))
	for name, a := range entity.Attributes {
		if a.Kind != mapping.KindEntity {
			kinds[name] = a.Kind
		}
	}
	return kinds
}
