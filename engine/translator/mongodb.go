package translator

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/omniql-engine/omnifilter/engine/ast"
	mongobuilders "github.com/omniql-engine/omnifilter/engine/builders/mongodb"
	"github.com/omniql-engine/omnifilter/engine/models"
)

// DocumentQuery is a MongoDB find over one collection.
type DocumentQuery struct {
	Collection string
	Filter     bson.M
	Options    *options.FindOptions
}

// TranslateMongoDB renders query as a find filter plus sort/paging options.
func TranslateMongoDB(query *models.Query, node *ast.PredicateNode) *DocumentQuery {
	return &DocumentQuery{
		Collection: query.Table,
		Filter:     mongobuilders.BuildFilter(node),
		Options:    mongobuilders.FindOptions(query.Sort, query.Page),
	}
}

// String renders the shell form: db.users.find({...}).sort({...}).skip(n).limit(m)
func (q *DocumentQuery) String() string {
	s := fmt.Sprintf("db.%s.find(%s)", q.Collection, extJSON(q.Filter))
	if q.Options == nil {
		return s
	}
	if q.Options.Sort != nil {
		s += fmt.Sprintf(".sort(%s)", extJSON(q.Options.Sort))
	}
	if q.Options.Skip != nil && *q.Options.Skip > 0 {
		s += fmt.Sprintf(".skip(%d)", *q.Options.Skip)
	}
	if q.Options.Limit != nil && *q.Options.Limit > 0 {
		s += fmt.Sprintf(".limit(%d)", *q.Options.Limit)
	}
	return s
}

func extJSON(v any) string {
	data, err := bson.MarshalExtJSON(v, false, false)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
