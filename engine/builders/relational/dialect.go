// Package relational renders predicates and sorts as SQL for PostgreSQL,
// MySQL and SQLite.
package relational

import (
	"fmt"
	"strings"

	"github.com/omniql-engine/omnifilter/mapping"
)

// Dialect captures the per-database differences of the rendered SQL.
type Dialect struct {
	Name string // key into mapping.OperatorMap / mapping.TypeMap

	numbered bool // $1, $2 ... instead of ?
	quote    byte // identifier quote
}

var (
	PostgreSQL = &Dialect{Name: "PostgreSQL", numbered: true, quote: '"'}
	MySQL      = &Dialect{Name: "MySQL", quote: '`'}
	SQLite     = &Dialect{Name: "SQLite", quote: '"'}
)

// DialectFor returns the dialect registered for dbType.
func DialectFor(dbType string) (*Dialect, error) {
	switch dbType {
	case PostgreSQL.Name:
		return PostgreSQL, nil
	case MySQL.Name:
		return MySQL, nil
	case SQLite.Name:
		return SQLite, nil
	}
	return nil, fmt.Errorf("unsupported SQL database: %s", dbType)
}

// Placeholder returns the n-th (1-based) bind parameter.
func (d *Dialect) Placeholder(n int) string {
	if d.numbered {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// QuoteIdent quotes one identifier, doubling embedded quote characters.
func (d *Dialect) QuoteIdent(ident string) string {
	q := string(d.quote)
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

// QuotePath quotes a dotted column path segment by segment: user.first_name
// -> "user"."first_name".
func (d *Dialect) QuotePath(path string) string {
	segs := strings.Split(path, ".")
	for i, s := range segs {
		segs[i] = d.QuoteIdent(s)
	}
	return strings.Join(segs, ".")
}

// operator returns the dialect's native token for op.
func (d *Dialect) operator(op mapping.Operator) string {
	return mapping.OperatorMap[d.Name][op]
}
