// Package mongodb renders predicates and sorts as bson for the MongoDB driver.
package mongodb

import (
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/omniql-engine/omnifilter/engine/ast"
	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/mapping"
)

const dbType = "MongoDB"

var compareOperators = map[ast.CompareOp]mapping.Operator{
	ast.OpEq:  mapping.EQ,
	ast.OpNe:  mapping.NOTEQ,
	ast.OpGt:  mapping.GT,
	ast.OpLt:  mapping.LT,
	ast.OpGte: mapping.GTE,
	ast.OpLte: mapping.LTE,
}

// ============================================================================
// FILTER
// ============================================================================

// BuildFilter renders node as a find filter. Attribute paths are used as
// document paths unchanged. The universal predicate is the empty filter.
func BuildFilter(node *ast.PredicateNode) bson.M {
	if node.IsTrue() {
		return bson.M{}
	}

	switch node.Kind {
	case ast.KindAnd:
		if len(node.Children) == 1 {
			return BuildFilter(node.Children[0])
		}
		parts := bson.A{}
		for _, c := range node.Children {
			parts = append(parts, BuildFilter(c))
		}
		return bson.M{"$and": parts}

	case ast.KindNot:
		return bson.M{"$nor": bson.A{BuildFilter(node.Children[0])}}

	case ast.KindCompare:
		op := mapping.OperatorMap[dbType][compareOperators[node.Op]]
		return bson.M{node.Path: bson.M{op: mongoValue(node.Value)}}

	case ast.KindLike:
		re := primitive.Regex{Pattern: ast.LikeRegexp(node.Pattern), Options: "s"}
		if node.Negated {
			return bson.M{node.Path: bson.M{"$not": re}}
		}
		return bson.M{node.Path: bson.M{"$regex": re}}

	case ast.KindNull:
		if node.Negated {
			return bson.M{node.Path: bson.M{"$ne": nil}}
		}
		return bson.M{node.Path: bson.M{"$eq": nil}}

	case ast.KindIn:
		values := bson.A{}
		for _, v := range node.Values {
			values = append(values, mongoValue(v))
		}
		return bson.M{node.Path: bson.M{"$in": values}}
	}
	return bson.M{}
}

// mongoValue stores UUIDs in their canonical string form.
func mongoValue(v any) any {
	if id, ok := v.(uuid.UUID); ok {
		return id.String()
	}
	return v
}

// ============================================================================
// SORT / PAGING
// ============================================================================

// BuildSort renders directives in order; nil for no sort.
func BuildSort(sort *models.Sort) bson.D {
	if sort.Len() == 0 {
		return nil
	}
	d := make(bson.D, 0, sort.Len())
	for _, dir := range sort.Directives {
		order := 1
		if !dir.Ascending() {
			order = -1
		}
		d = append(d, bson.E{Key: dir.Field, Value: order})
	}
	return d
}

// FindOptions combines sort and paging.
func FindOptions(sort *models.Sort, page *models.Page) *options.FindOptions {
	opts := options.Find()
	if s := BuildSort(sort); s != nil {
		opts.SetSort(s)
	}
	if page.Paged() {
		opts.SetSkip(int64(page.Offset()))
		opts.SetLimit(int64(page.Limit()))
	}
	return opts
}
