package reverse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniql-engine/omnifilter/engine/ast"
	"github.com/omniql-engine/omnifilter/engine/builders/relational"
	"github.com/omniql-engine/omnifilter/engine/compiler"
	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/engine/parser"
	"github.com/omniql-engine/omnifilter/engine/schema"
	"github.com/omniql-engine/omnifilter/mapping"
)

func registry() *schema.Registry {
	return schema.NewRegistry(
		schema.NewEntity("Order").
			Attr("id", mapping.KindUUID).
			Attr("status", mapping.KindString).
			Attr("amount", mapping.KindFloat).
			Attr("quantity", mapping.KindInt).
			Attr("paid", mapping.KindBool).
			Attr("createdAt", mapping.KindTimestamp).
			Attr("payload", mapping.KindJSON).
			Ref("user", "User"),
		schema.NewEntity("User").
			Attr("name", mapping.KindString).
			Attr("birthDate", mapping.KindDate).
			Ref("profile", "Profile"),
		schema.NewEntity("Profile").
			Attr("email", mapping.KindString),
	)
}

func compile(t *testing.T, conds models.Conditions) *ast.PredicateNode {
	t.Helper()
	entries, err := parser.ParseFilters(conds)
	require.NoError(t, err)
	node, err := compiler.New(registry(), nil).Compile("Order", entries)
	require.NoError(t, err)
	return node
}

func TestRoundTripThroughInlineSQL(t *testing.T) {
	conds := models.Conditions{
		{Key: "EQ_status", Value: "open"},
		{Key: "NOTEQ_quantity", Value: "3"},
		{Key: "GT_amount", Value: "9.5"},
		{Key: "LTE_user.birthDate", Value: "2020-05-01"},
		{Key: "GTE_createdAt", Value: "2020-01-01 10:00:00"},
		{Key: "LIKE_user.name", Value: "oh"},
		{Key: "LLIKE_user.profile.email", Value: "@gmail.com"},
		{Key: "RLIKE_status", Value: "op"},
		{Key: "NLIKE_status", Value: "cl"},
		{Key: "IN_quantity", Value: "1,2,3"},
		{Key: "NOTIN_status", Value: []string{"a", "b"}},
		{Key: "NULL_payload", Value: "1"},
		{Key: "NOTNULL_user.profile.email", Value: "1"},
		{Key: "EQ_paid", Value: "true"},
		{Key: "EQ_id", Value: "9f1c3e2a-8d4b-4c6e-a1f0-2b3c4d5e6f70"},
	}
	want := compile(t, conds)

	for _, d := range []*relational.Dialect{relational.PostgreSQL, relational.MySQL, relational.SQLite} {
		t.Run(d.Name, func(t *testing.T) {
			where := relational.Inline(d, want)
			back, err := ToConditions(where, d.Name)
			require.NoError(t, err, where)
			assert.Equal(t, want, compile(t, back), where)
		})
	}
}

func TestBoundedLteComesBackAsLt(t *testing.T) {
	node := compile(t, models.Conditions{{Key: "LTE_user.birthDate", Value: "2020-05-01"}})
	back, err := ToConditions(relational.Inline(relational.PostgreSQL, node), "PostgreSQL")
	require.NoError(t, err)
	assert.Equal(t, models.Conditions{{Key: "LT_user.birthDate", Value: "2020-05-02 00:00:00"}}, back)
}

func TestToConditions(t *testing.T) {
	tests := []struct {
		name string
		db   string
		sql  string
		args []any
		want models.Conditions
	}{
		{
			name: "bare where",
			db:   "PostgreSQL",
			sql:  `"age" >= 18 AND "name" LIKE '%oh%'`,
			want: models.Conditions{{Key: "GTE_age", Value: "18"}, {Key: "LIKE_name", Value: "oh"}},
		},
		{
			name: "full select with params",
			db:   "PostgreSQL",
			sql:  `SELECT * FROM users WHERE user_name = $1 AND age IN ($2, $3);`,
			args: []any{"bob", 1, 2},
			want: models.Conditions{{Key: "EQ_userName", Value: "bob"}, {Key: "IN_age", Value: []any{1, 2}}},
		},
		{
			name: "flipped comparison",
			db:   "PostgreSQL",
			sql:  `18 < age`,
			want: models.Conditions{{Key: "GT_age", Value: "18"}},
		},
		{
			name: "negative literal",
			db:   "MySQL",
			sql:  "`age` > -3",
			want: models.Conditions{{Key: "GT_age", Value: "-3"}},
		},
		{
			name: "tautology skipped",
			db:   "PostgreSQL",
			sql:  `1=1`,
		},
		{
			name: "mysql placeholders",
			db:   "MySQL",
			sql:  "`age` > ? AND `name` NOT LIKE ?",
			args: []any{3, "Jo%"},
			want: models.Conditions{{Key: "GT_age", Value: 3}, {Key: "NLIKE_name", Value: "Jo"}},
		},
		{
			name: "mysql not in",
			db:   "MySQL",
			sql:  "`status` NOT IN ('a', 'b') AND `deleted_at` IS NULL",
			want: models.Conditions{{Key: "NOTIN_status", Value: []string{"a", "b"}}, {Key: "NULL_deletedAt", Value: "1"}},
		},
		{
			name: "sqlite placeholders",
			db:   "SQLite",
			sql:  `"age" = ? AND "city" <> ?`,
			args: []any{5, []byte("Oslo")},
			want: models.Conditions{{Key: "EQ_age", Value: 5}, {Key: "NOTEQ_city", Value: "Oslo"}},
		},
		{
			name: "negated equality",
			db:   "PostgreSQL",
			sql:  `NOT ("name" = 'x') AND "email" IS NOT NULL`,
			want: models.Conditions{{Key: "NOTEQ_name", Value: "x"}, {Key: "NOTNULL_email", Value: "1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToConditions(tt.sql, tt.db, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToConditionsErrors(t *testing.T) {
	tests := []struct {
		name string
		db   string
		sql  string
		args []any
		err  error
	}{
		{"empty", "PostgreSQL", "  ;", nil, ErrEmptyQuery},
		{"unknown database", "Redis", "a = 1", nil, ErrNotSupported},
		{"pg or", "PostgreSQL", `a = 1 OR b = 2`, nil, ErrNotSupported},
		{"mysql or", "MySQL", "a = 1 OR b = 2", nil, ErrNotSupported},
		{"syntax", "PostgreSQL", `a = = 1`, nil, ErrParseError},
		{"mysql syntax", "MySQL", "a = = 1", nil, ErrParseError},
		{"inner wildcard", "PostgreSQL", `name LIKE '%a%b'`, nil, ErrNotSupported},
		{"negated contains", "MySQL", "name NOT LIKE '%a%'", nil, ErrNotSupported},
		{"negated ordering", "PostgreSQL", `NOT (age > 3)`, nil, ErrNotSupported},
		{"column to column", "PostgreSQL", `a = b`, nil, ErrNotSupported},
		{"missing argument", "PostgreSQL", `a = $2`, []any{1}, ErrParseError},
		{"null literal", "PostgreSQL", `a = NULL`, nil, ErrNotSupported},
		{"set operation", "PostgreSQL", `SELECT * FROM a UNION SELECT * FROM b`, nil, ErrNotSupported},
		{"function", "PostgreSQL", `lower(name) = 'x'`, nil, ErrNotSupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToConditions(tt.sql, tt.db, tt.args...)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestLikeOperator(t *testing.T) {
	tests := []struct {
		pattern string
		not     bool
		op      mapping.Operator
		value   string
	}{
		{"%oh%", false, mapping.LIKE, "oh"},
		{"%son", false, mapping.LLIKE, "son"},
		{"Jo%", false, mapping.RLIKE, "Jo"},
		{"Jo%", true, mapping.NLIKE, "Jo"},
		{"%a_b%", false, mapping.LIKE, "a_b"},
	}
	for _, tt := range tests {
		op, value, err := likeOperator(tt.pattern, tt.not)
		require.NoError(t, err, tt.pattern)
		assert.Equal(t, tt.op, op)
		assert.Equal(t, tt.value, value)
	}

	for _, p := range []string{"%", "%%", "abc", "a%b"} {
		_, _, err := likeOperator(p, false)
		assert.ErrorIs(t, err, ErrNotSupported, p)
	}
}
