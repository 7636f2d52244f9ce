package parser

import (
	"strings"

	"github.com/omniql-engine/omnifilter/engine/models"
)

// ParseSortParam parses a comma-separated sort parameter such as
// "age,-name,+email". A leading '-' sorts descending, '+' or nothing ascending.
// Empty items are skipped; a later duplicate of a field is ignored.
func ParseSortParam(param string) models.SortParams {
	var params models.SortParams
	seen := map[string]bool{}
	for _, item := range strings.Split(param, ",") {
		item = strings.TrimSpace(item)
		asc := true
		switch {
		case strings.HasPrefix(item, "-"):
			asc = false
			item = item[1:]
		case strings.HasPrefix(item, "+"):
			item = item[1:]
		}
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		params = append(params, models.SortParam{Field: item, Ascending: asc})
	}
	return params
}

// FormatSortParam is the inverse of ParseSortParam.
func FormatSortParam(params models.SortParams) string {
	parts := make([]string, len(params))
	for i, p := range params {
		if p.Ascending {
			parts[i] = p.Field
		} else {
			parts[i] = "-" + p.Field
		}
	}
	return strings.Join(parts, ",")
}
