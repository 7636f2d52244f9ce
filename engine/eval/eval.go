// Package eval evaluates a compiled predicate against in-memory records.
package eval

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/omniql-engine/omnifilter/engine/ast"
)

// Getter returns the value at a dotted attribute path and whether it exists.
type Getter func(path string) (any, bool)

// MapGetter reads paths from a record. A flattened key ("user.name") wins
// over walking nested maps.
func MapGetter(record map[string]any) Getter {
	return func(path string) (any, bool) {
		if v, ok := record[path]; ok {
			return v, true
		}
		var current any = record
		for _, seg := range strings.Split(path, ".") {
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			if current, ok = m[seg]; !ok {
				return nil, false
			}
		}
		return current, true
	}
}

// Matcher is a predicate with its LIKE patterns compiled. It is safe for
// concurrent use.
type Matcher struct {
	node  *ast.PredicateNode
	likes map[*ast.PredicateNode]*regexp.Regexp
}

// NewMatcher compiles every LIKE pattern of node once. A pattern that does
// not compile never matches.
func NewMatcher(node *ast.PredicateNode) *Matcher {
	m := &Matcher{node: node, likes: map[*ast.PredicateNode]*regexp.Regexp{}}
	var walk func(*ast.PredicateNode)
	walk = func(n *ast.PredicateNode) {
		if n == nil {
			return
		}
		if n.Kind == ast.KindLike {
			if re, err := ast.CompileLike(n.Pattern); err == nil {
				m.likes[n] = re
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(node)
	return m
}

// truth is SQL's three-valued logic: a comparison with a missing or nil
// operand is unknown, and NOT unknown stays unknown.
type truth int8

const (
	unknown truth = iota
	no
	yes
)

func truthOf(b bool) truth {
	if b {
		return yes
	}
	return no
}

// Match reports whether the record behind get satisfies the predicate.
//
// A missing or nil attribute only satisfies IS NULL. Every other node over
// it is unknown, also under NOT, so "!=" and NOT IN leave it out the way
// SQL stores do.
func (m *Matcher) Match(get Getter) bool {
	if m.node.IsTrue() {
		return true
	}
	return m.eval(m.node, get) == yes
}

// MatchRecord is Match over a map record.
func (m *Matcher) MatchRecord(record map[string]any) bool {
	return m.Match(MapGetter(record))
}

func (m *Matcher) eval(node *ast.PredicateNode, get Getter) truth {
	if node.IsTrue() {
		return yes
	}

	switch node.Kind {
	case ast.KindAnd:
		out := yes
		for _, c := range node.Children {
			switch m.eval(c, get) {
			case no:
				return no
			case unknown:
				out = unknown
			}
		}
		return out

	case ast.KindNot:
		if len(node.Children) == 0 {
			return no
		}
		switch m.eval(node.Children[0], get) {
		case yes:
			return no
		case no:
			return yes
		}
		return unknown

	case ast.KindNull:
		v, ok := get(node.Path)
		null := !ok || IsNil(v)
		return truthOf(null != node.Negated)
	}

	actual, ok := get(node.Path)
	if !ok || IsNil(actual) {
		return unknown
	}

	switch node.Kind {
	case ast.KindCompare:
		return truthOf(matchCompare(actual, node.Op, node.Value))
	case ast.KindLike:
		re, ok := m.likes[node]
		if !ok {
			return no
		}
		return truthOf(re.MatchString(stringOf(actual)) != node.Negated)
	case ast.KindIn:
		for _, v := range node.Values {
			if Equal(actual, v) {
				return yes
			}
		}
		return no
	}
	return no
}

// Match reports whether the record behind get satisfies node. Callers
// matching many records should build one Matcher instead.
func Match(node *ast.PredicateNode, get Getter) bool {
	return NewMatcher(node).Match(get)
}

// MatchRecord is Match over a map record.
func MatchRecord(node *ast.PredicateNode, record map[string]any) bool {
	return Match(node, MapGetter(record))
}

// Filter returns the records matching node, in input order.
func Filter(node *ast.PredicateNode, records []map[string]any) []map[string]any {
	m := NewMatcher(node)
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		if m.MatchRecord(r) {
			out = append(out, r)
		}
	}
	return out
}

func matchCompare(actual any, op ast.CompareOp, expected any) bool {
	c, ok := Compare(actual, expected)
	if !ok {
		return op == ast.OpNe
	}
	switch op {
	case ast.OpEq:
		return c == 0
	case ast.OpNe:
		return c != 0
	case ast.OpGt:
		return c > 0
	case ast.OpLt:
		return c < 0
	case ast.OpGte:
		return c >= 0
	case ast.OpLte:
		return c <= 0
	}
	return false
}

func stringOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// IsNil reports nil interfaces and nil pointers, maps and slices.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
