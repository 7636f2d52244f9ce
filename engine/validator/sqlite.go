package validator

import (
	"strconv"
	"strings"
)

// ValidateSQLite validates SQLite SQL through the PostgreSQL grammar, which
// accepts the subset the relational renderer emits once '?' placeholders
// are numbered.
func ValidateSQLite(query string) error {
	return ValidatePostgreSQL(NumberPlaceholders(query))
}

// NumberPlaceholders rewrites '?' outside string literals and quoted
// identifiers to $1, $2, ...
func NumberPlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '?':
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
