package ofl

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/omniql-engine/omnifilter/engine/ast"
	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/engine/schema"
	"github.com/omniql-engine/omnifilter/engine/translator"
	"github.com/omniql-engine/omnifilter/engine/validator"
)

// MongoExecutor runs predicates as find queries on the entity's collection.
type MongoExecutor struct {
	db *mongo.Database
}

// NewMongoExecutor creates an executor over db.
func NewMongoExecutor(db *mongo.Database) *MongoExecutor {
	return &MongoExecutor{db: db}
}

// Execute runs find with the rendered filter, sort and paging.
func (e *MongoExecutor) Execute(ctx context.Context, entity *schema.Entity, node *ast.PredicateNode, sort *models.Sort, page *models.Page) ([]map[string]any, error) {
	q := &models.Query{Entity: entity.Name, Table: entity.Table, Sort: sort, Page: page}
	res, err := translator.Translate(q, node, "MongoDB")
	if err != nil {
		return nil, fmt.Errorf("translation error: %w", err)
	}
	doc := res.Document
	if err := validator.ValidateMongoFilter(doc.Filter); err != nil {
		return nil, err
	}

	cursor, err := e.db.Collection(doc.Collection).Find(ctx, doc.Filter, doc.Options)
	if err != nil {
		return nil, fmt.Errorf("find error: %w", err)
	}
	defer cursor.Close(ctx)

	results := []map[string]any{}
	for cursor.Next(ctx) {
		var d bson.M
		if err := cursor.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode error: %w", err)
		}
		results = append(results, bsonToMap(d))
	}
	return results, cursor.Err()
}

func bsonToMap(doc bson.M) map[string]any {
	result := make(map[string]any, len(doc))
	for k, v := range doc {
		if nested, ok := v.(bson.M); ok {
			result[k] = bsonToMap(nested)
			continue
		}
		result[k] = v
	}
	return result
}
