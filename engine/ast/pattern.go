package ast

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Contains, Suffix and Prefix build the LIKE patterns of the LIKE family.
func Contains(v string) string { return "%" + v + "%" }
func Suffix(v string) string   { return "%" + v }
func Prefix(v string) string   { return v + "%" }

// LikeRegexp translates a SQL LIKE pattern into an anchored regular
// expression: '%' -> ".*", '_' -> ".", everything else literal.
func LikeRegexp(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			b.WriteString(regexp.QuoteMeta(lit.String()))
			lit.Reset()
		}
	}
	for _, r := range pattern {
		switch r {
		case '%':
			flush()
			b.WriteString(".*")
		case '_':
			flush()
			b.WriteString(".")
		default:
			lit.WriteRune(r)
		}
	}
	flush()
	b.WriteString("$")
	return b.String()
}

// CompileLike compiles pattern for in-memory matching. (?s) lets '%' span newlines.
func CompileLike(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?s)" + LikeRegexp(pattern))
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + x + "'"
	case time.Time:
		return "'" + x.Format(time.RFC3339) + "'"
	}
	return fmt.Sprint(v)
}
