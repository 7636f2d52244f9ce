package compiler

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniql-engine/omnifilter/engine/ast"
	"github.com/omniql-engine/omnifilter/engine/convert"
	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/engine/parser"
	"github.com/omniql-engine/omnifilter/engine/schema"
	"github.com/omniql-engine/omnifilter/mapping"
)

func testRegistry() *schema.Registry {
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

func compile(t *testing.T, entity string, conds models.Conditions) (*ast.PredicateNode, []*models.FilterEntry, error) {
	t.Helper()
	entries, err := parser.ParseFilters(conds)
	require.NoError(t, err)
	node, err := New(testRegistry(), nil).Compile(entity, entries)
	return node, entries, err
}

func TestCompileEmptyIsTrue(t *testing.T) {
	node, _, err := compile(t, "User", models.Conditions{
		{Key: "EQ_name", Value: ""},
		{Key: "LTE_birthDate", Value: "  "},
	})
	require.NoError(t, err)
	assert.True(t, node.IsTrue())
	assert.Equal(t, ast.KindTrue, node.Kind)
}

func TestCompileCombinesWithAndInOrder(t *testing.T) {
	node, _, err := compile(t, "Order", models.Conditions{
		{Key: "EQ_status", Value: "PAID"},
		{Key: "GT_quantity", Value: "3"},
	})
	require.NoError(t, err)
	require.Equal(t, ast.KindAnd, node.Kind)
	require.Len(t, node.Children, 2)
	assert.Equal(t, "status", node.Children[0].Path)
	assert.Equal(t, "quantity", node.Children[1].Path)
	assert.Equal(t, int64(3), node.Children[1].Value)
	assert.Equal(t, ast.OpGt, node.Children[1].Op)
}

func TestCompileSingleFilterStillWrappedInAnd(t *testing.T) {
	node, _, err := compile(t, "Order", models.Conditions{{Key: "EQ_status", Value: "PAID"}})
	require.NoError(t, err)
	assert.Equal(t, ast.KindAnd, node.Kind)
	assert.Len(t, node.Conjuncts(), 1)
}

func TestCompileOperators(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		check func(t *testing.T, n *ast.PredicateNode)
	}{
		{"EQ", "EQ_status", "PAID", func(t *testing.T, n *ast.PredicateNode) {
			assert.Equal(t, ast.KindCompare, n.Kind)
			assert.Equal(t, ast.OpEq, n.Op)
			assert.Equal(t, "PAID", n.Value)
		}},
		{"NOTEQ", "NOTEQ_paid", "true", func(t *testing.T, n *ast.PredicateNode) {
			assert.Equal(t, ast.OpNe, n.Op)
			assert.Equal(t, true, n.Value)
		}},
		{"LIKE", "LIKE_status", "AI", func(t *testing.T, n *ast.PredicateNode) {
			assert.Equal(t, ast.KindLike, n.Kind)
			assert.Equal(t, "%AI%", n.Pattern)
			assert.False(t, n.Negated)
		}},
		{"LLIKE", "LLIKE_status", "ID", func(t *testing.T, n *ast.PredicateNode) {
			assert.Equal(t, "%ID", n.Pattern)
		}},
		{"RLIKE", "RLIKE_status", "PA", func(t *testing.T, n *ast.PredicateNode) {
			assert.Equal(t, "PA%", n.Pattern)
		}},
		{"NLIKE", "NLIKE_status", "PA", func(t *testing.T, n *ast.PredicateNode) {
			assert.Equal(t, "PA%", n.Pattern)
			assert.True(t, n.Negated)
		}},
		{"LIKE on number uses string form", "LIKE_quantity", 12, func(t *testing.T, n *ast.PredicateNode) {
			assert.Equal(t, "%12%", n.Pattern)
		}},
		{"GTE float", "GTE_amount", "9.5", func(t *testing.T, n *ast.PredicateNode) {
			assert.Equal(t, ast.OpGte, n.Op)
			assert.Equal(t, 9.5, n.Value)
		}},
		{"LT typed value kept", "LT_quantity", 7, func(t *testing.T, n *ast.PredicateNode) {
			assert.Equal(t, ast.OpLt, n.Op)
			assert.Equal(t, 7, n.Value)
		}},
		{"NULL ignores value", "NULL_amount", "anything", func(t *testing.T, n *ast.PredicateNode) {
			assert.Equal(t, ast.KindNull, n.Kind)
			assert.False(t, n.Negated)
			assert.Nil(t, n.Value)
		}},
		{"NOTNULL", "NOTNULL_amount", "1", func(t *testing.T, n *ast.PredicateNode) {
			assert.Equal(t, ast.KindNull, n.Kind)
			assert.True(t, n.Negated)
		}},
		{"NULL on reference", "NULL_user", "1", func(t *testing.T, n *ast.PredicateNode) {
			assert.Equal(t, ast.KindNull, n.Kind)
		}},
		{"EQ UUID", "EQ_id", "7f1c9b7e-4f7a-4c43-9d3e-1a2b3c4d5e6f", func(t *testing.T, n *ast.PredicateNode) {
			assert.Equal(t, uuid.MustParse("7f1c9b7e-4f7a-4c43-9d3e-1a2b3c4d5e6f"), n.Value)
		}},
		{"nested path", "EQ_user.profile.email", "a@b.c", func(t *testing.T, n *ast.PredicateNode) {
			assert.Equal(t, "user.profile.email", n.Path)
			assert.Equal(t, mapping.KindString, n.Type)
		}},
		{"EQ on JSON without converter passes through", "EQ_payload", "{}", func(t *testing.T, n *ast.PredicateNode) {
			assert.Equal(t, "{}", n.Value)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, _, err := compile(t, "Order", models.Conditions{{Key: tt.key, Value: tt.value}})
			require.NoError(t, err)
			conj := node.Conjuncts()
			require.Len(t, conj, 1)
			tt.check(t, conj[0])
		})
	}
}

func TestCompileNullIgnoresValue(t *testing.T) {
	a, _, err := compile(t, "Order", models.Conditions{{Key: "NULL_amount", Value: "x"}})
	require.NoError(t, err)
	b, _, err := compile(t, "Order", models.Conditions{{Key: "NULL_amount", Value: 42}})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCompileMembership(t *testing.T) {
	node, _, err := compile(t, "Order", models.Conditions{{Key: "IN_status", Value: "A, B,C"}})
	require.NoError(t, err)
	in := node.Conjuncts()[0]
	assert.Equal(t, ast.KindIn, in.Kind)
	assert.Equal(t, []any{"A", "B", "C"}, in.Values)

	node, _, err = compile(t, "Order", models.Conditions{{Key: "NOTIN_status", Value: "A,B,C"}})
	require.NoError(t, err)
	not := node.Conjuncts()[0]
	require.Equal(t, ast.KindNot, not.Kind)
	assert.Equal(t, in, not.Children[0])

	node, _, err = compile(t, "Order", models.Conditions{{Key: "IN_quantity", Value: []string{"1", "2"}}})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, node.Conjuncts()[0].Values)

	node, _, err = compile(t, "Order", models.Conditions{{Key: "IN_quantity", Value: []int{4, 5}}})
	require.NoError(t, err)
	assert.Equal(t, []any{4, 5}, node.Conjuncts()[0].Values)

	_, _, err = compile(t, "Order", models.Conditions{{Key: "IN_quantity", Value: "1,two"}})
	assert.ErrorIs(t, err, models.ErrConversionFailure)
}

func TestLteDateBoundary(t *testing.T) {
	node, entries, err := compile(t, "User", models.Conditions{{Key: "LTE_birthDate", Value: "2020-05-01"}})
	require.NoError(t, err)

	n := node.Conjuncts()[0]
	assert.Equal(t, ast.OpLt, n.Op)
	assert.Equal(t, time.Date(2020, 5, 2, 0, 0, 0, 0, time.UTC), n.Value)
	assert.True(t, entries[0].Bounded)
	assert.Equal(t, "2020-05-01", entries[0].RawValue)

	// slash form has the same length and gets the same treatment
	node, _, err = compile(t, "User", models.Conditions{{Key: "LTE_birthDate", Value: "2020/12/31"}})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), node.Conjuncts()[0].Value)
}

func TestLteWithTimeOfDayIsInclusive(t *testing.T) {
	node, entries, err := compile(t, "Order", models.Conditions{{Key: "LTE_createdAt", Value: "2020-05-01 12:30:00"}})
	require.NoError(t, err)
	n := node.Conjuncts()[0]
	assert.Equal(t, ast.OpLte, n.Op)
	assert.Equal(t, time.Date(2020, 5, 1, 12, 30, 0, 0, time.UTC), n.Value)
	assert.False(t, entries[0].Bounded)
}

func TestLteBoundaryMissFallsThrough(t *testing.T) {
	// ten characters but not a date: the boundary rule gives up and generic
	// coercion reports the failure
	_, _, err := compile(t, "User", models.Conditions{{Key: "LTE_birthDate", Value: "not-a-date"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConversionFailure)

	var fe *models.FilterError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "LTE_birthDate", fe.Key)
	assert.Equal(t, []string{"yyyy-MM-dd", "yyyy/MM/dd", "yyyy-MM-dd HH:mm:ss", "yyyy/MM/dd HH:mm:ss"}, fe.Formats)
}

func TestGteDateOnlyIsNotAdjusted(t *testing.T) {
	node, _, err := compile(t, "User", models.Conditions{{Key: "GTE_birthDate", Value: "2020-05-01"}})
	require.NoError(t, err)
	n := node.Conjuncts()[0]
	assert.Equal(t, ast.OpGte, n.Op)
	assert.Equal(t, time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC), n.Value)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		entity string
		key    string
		value  any
		want   error
	}{
		{"unknown attribute", "Order", "EQ_nope", "x", models.ErrUnknownAttributePath},
		{"missing nested segment", "Order", "EQ_user.address.city", "x", models.ErrUnknownAttributePath},
		{"missing root segment", "Profile", "EQ_user.profile.email", "x", models.ErrUnknownAttributePath},
		{"scalar mid path", "User", "EQ_name.first", "x", models.ErrUnknownAttributePath},
		{"bad int", "Order", "EQ_quantity", "many", models.ErrConversionFailure},
		{"bad date", "Order", "GT_createdAt", "yesterday", models.ErrConversionFailure},
		{"ordering on JSON", "Order", "GT_payload", "1", models.ErrNonComparableType},
		{"ordering with unordered value", "Order", "GT_quantity", []byte("1"), models.ErrNonComparableType},
		{"compare reference", "Order", "EQ_user", "x", models.ErrNonComparableType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := compile(t, tt.entity, models.Conditions{{Key: tt.key, Value: tt.value}})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var fe *models.FilterError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.key, fe.Key)
		})
	}
}

func TestUnknownPathSegments(t *testing.T) {
	tests := map[string]string{
		"EQ_user.address.city":          "address",
		"EQ_user.profile.phone":         "phone",
		"EQ_user.name.first":            "first",
		"EQ_customer.profile.email":     "customer",
		"LIKE_user.profile.email.local": "local",
	}
	for key, segment := range tests {
		t.Run(key, func(t *testing.T) {
			_, _, err := compile(t, "Order", models.Conditions{{Key: key, Value: "x"}})
			var fe *models.FilterError
			require.True(t, errors.As(err, &fe))
			assert.ErrorIs(t, err, models.ErrUnknownAttributePath)
			assert.Equal(t, segment, fe.Segment)
		})
	}
}

func TestUnknownPathReportsSegment(t *testing.T) {
	reg := schema.NewRegistry(
		schema.NewEntity("Order").Ref("user", "User"),
		schema.NewEntity("User").Attr("name", mapping.KindString),
	)
	entries, err := parser.ParseFilters(models.Conditions{{Key: "EQ_user.profile.email", Value: "x"}})
	require.NoError(t, err)

	_, err = New(reg, nil).Compile("Order", entries)
	var fe *models.FilterError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "profile", fe.Segment)
}

func TestCompileIsIdempotent(t *testing.T) {
	conds := models.Conditions{
		{Key: "EQ_user.name", Value: "bob"},
		{Key: "LTE_user.birthDate", Value: "2020-05-01"},
		{Key: "NOTIN_status", Value: "A,B"},
	}
	first, _, err := compile(t, "Order", conds)
	require.NoError(t, err)
	second, _, err := compile(t, "Order", conds)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// recompiling the same entries is stable too
	entries, err := parser.ParseFilters(conds)
	require.NoError(t, err)
	c := New(testRegistry(), nil)
	a, err := c.Compile("Order", entries)
	require.NoError(t, err)
	b, err := c.Compile("Order", entries)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCompileLogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	entries, err := parser.ParseFilters(models.Conditions{{Key: "EQ_status", Value: "PAID"}})
	require.NoError(t, err)
	_, err = New(testRegistry(), convert.New(), WithLogger(logger)).Compile("Order", entries)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "compiled predicate")
	assert.Contains(t, buf.String(), "entity=Order")
}

func TestCompileUsesConfiguredLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	entries, err := parser.ParseFilters(models.Conditions{{Key: "LTE_birthDate", Value: "2020-05-01"}})
	require.NoError(t, err)

	node, err := New(testRegistry(), convert.New(convert.WithLocation(loc))).Compile("User", entries)
	require.NoError(t, err)
	assert.True(t, time.Date(2020, 5, 2, 0, 0, 0, 0, loc).Equal(node.Conjuncts()[0].Value.(time.Time)))
}
