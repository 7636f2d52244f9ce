// Package parser decodes flat "<OPERATOR>_<fieldPath>" condition keys into
// typed filter entries and sort parameters.
package parser

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/mapping"
)

// keySeparator splits the operator token from the field path.
const keySeparator = "_"

// ParseFilters decodes conditions in order. Conditions with an absent or
// blank value are dropped; every other condition yields exactly one entry.
func ParseFilters(conds models.Conditions) ([]*models.FilterEntry, error) {
	entries := make([]*models.FilterEntry, 0, len(conds))
	for _, c := range conds {
		op, path, err := ParseKey(c.Key)
		if err != nil {
			return nil, err
		}
		if IsBlank(c.Value) {
			continue
		}
		entries = append(entries, models.NewFilterEntry(path, op, c.Value))
	}
	return entries, nil
}

// ParseKey splits a condition key at its first underscore.
func ParseKey(key string) (mapping.Operator, string, error) {
	token, path, found := strings.Cut(key, keySeparator)
	if !found || token == "" || path == "" {
		return "", "", &models.FilterError{Err: models.ErrMalformedConditionKey, Key: key}
	}

	op, ok := mapping.LookupOperator(token)
	if !ok {
		return "", "", &models.FilterError{
			Err:        models.ErrUnknownOperator,
			Key:        key,
			Value:      token,
			Suggestion: SuggestOperator(token),
		}
	}
	return op, path, nil
}

// IsBlank reports whether v is absent: nil, a nil pointer, or a value whose
// string form is empty or whitespace only. Empty slices count as blank.
func IsBlank(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case fmt.Stringer:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return true
		}
		return strings.TrimSpace(t.String()) == ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Slice, reflect.Array:
		return rv.Len() == 0
	}
	return strings.TrimSpace(fmt.Sprint(v)) == ""
}
