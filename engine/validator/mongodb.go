package validator

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// ValidateMongoDB validates a filter document in extended JSON
func ValidateMongoDB(query string) error {
	var doc bson.M
	return bson.UnmarshalExtJSON([]byte(query), false, &doc)
}

// ValidateMongoFilter checks a rendered filter encodes as BSON
func ValidateMongoFilter(filter bson.M) error {
	if filter == nil {
		return fmt.Errorf("filter is nil")
	}
	if _, err := bson.Marshal(filter); err != nil {
		return fmt.Errorf("invalid MongoDB filter: %w", err)
	}
	return nil
}
