package mapping

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// ColumnName maps a camelCase field path onto a snake_case column identifier
// for raw SQL sites: userName -> user_name, user.firstName -> user.first_name.
// Upper-case runes become '_' + their lowercase form; '.', '_' and digits are kept.
func ColumnName(identifier string) string {
	var b strings.Builder
	b.Grow(len(identifier) + 4)
	for _, r := range identifier {
		if unicode.IsUpper(r) {
			b.WriteByte('_')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FieldName is the inverse of ColumnName for reverse translation:
// user_name -> userName. Dots are kept.
func FieldName(column string) string {
	var b strings.Builder
	b.Grow(len(column))
	upper := false
	for _, r := range column {
		if r == '_' {
			upper = true
			continue
		}
		if upper && r != '.' {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(r)
		}
		upper = false
	}
	return b.String()
}

// TableName derives the default table/collection name for an entity:
// UserProfile -> user_profiles.
func TableName(entity string) string {
	snake := strings.TrimPrefix(ColumnName(entity), "_")
	return inflection.Plural(snake)
}
