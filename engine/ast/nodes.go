// Package ast defines the compiled predicate tree.
//
// A PredicateNode is a tagged variant: Kind selects which fields are
// meaningful, and every renderer switches on Kind with one arm per shape.
package ast

import (
	"strings"

	"github.com/omniql-engine/omnifilter/mapping"
)

// NodeKind tags a PredicateNode.
type NodeKind string

const (
	KindTrue    NodeKind = "TRUE"    // matches everything
	KindAnd     NodeKind = "AND"     // Children, all must match
	KindNot     NodeKind = "NOT"     // Children[0] negated
	KindCompare NodeKind = "COMPARE" // Path Op Value
	KindLike    NodeKind = "LIKE"    // Path LIKE Pattern, Negated for NOT LIKE
	KindNull    NodeKind = "NULL"    // Path IS NULL, Negated for IS NOT NULL
	KindIn      NodeKind = "IN"      // Path IN Values
)

// CompareOp is the comparison of a COMPARE node.
type CompareOp string

const (
	OpEq  CompareOp = "="
	OpNe  CompareOp = "!="
	OpGt  CompareOp = ">"
	OpLt  CompareOp = "<"
	OpGte CompareOp = ">="
	OpLte CompareOp = "<="
)

// PredicateNode is one node of a compiled predicate.
type PredicateNode struct {
	Kind     NodeKind
	Path     string       // dotted attribute path
	Type     mapping.Kind // resolved attribute kind
	Op       CompareOp
	Value    any
	Values   []any
	Pattern  string // SQL LIKE pattern, '%' and '_' wildcards
	Negated  bool
	Children []*PredicateNode
}

// ============================================================================
// CONSTRUCTORS
// ============================================================================

// True returns the universal predicate.
func True() *PredicateNode {
	return &PredicateNode{Kind: KindTrue}
}

// And combines nodes conjunctively. No nodes yields True.
func And(nodes ...*PredicateNode) *PredicateNode {
	if len(nodes) == 0 {
		return True()
	}
	return &PredicateNode{Kind: KindAnd, Children: nodes}
}

// Not negates node.
func Not(node *PredicateNode) *PredicateNode {
	return &PredicateNode{Kind: KindNot, Children: []*PredicateNode{node}}
}

// Compare builds "path op value".
func Compare(path string, typ mapping.Kind, op CompareOp, value any) *PredicateNode {
	return &PredicateNode{Kind: KindCompare, Path: path, Type: typ, Op: op, Value: value}
}

// Like builds "path LIKE pattern" or "path NOT LIKE pattern".
func Like(path string, typ mapping.Kind, pattern string, negated bool) *PredicateNode {
	return &PredicateNode{Kind: KindLike, Path: path, Type: typ, Pattern: pattern, Negated: negated}
}

// IsNull builds "path IS NULL" or "path IS NOT NULL".
func IsNull(path string, negated bool) *PredicateNode {
	return &PredicateNode{Kind: KindNull, Path: path, Negated: negated}
}

// In builds "path IN (values...)".
func In(path string, typ mapping.Kind, values []any) *PredicateNode {
	return &PredicateNode{Kind: KindIn, Path: path, Type: typ, Values: values}
}

// ============================================================================
// INSPECTION
// ============================================================================

// IsTrue reports whether node is the universal predicate.
func (n *PredicateNode) IsTrue() bool {
	return n == nil || n.Kind == KindTrue
}

// Conjuncts returns the top-level AND operands (node itself when not an AND).
func (n *PredicateNode) Conjuncts() []*PredicateNode {
	if n.IsTrue() {
		return nil
	}
	if n.Kind == KindAnd {
		return n.Children
	}
	return []*PredicateNode{n}
}

// Paths returns every attribute path referenced under node, in order, without duplicates.
func (n *PredicateNode) Paths() []string {
	seen := map[string]bool{}
	var paths []string
	var walk func(*PredicateNode)
	walk = func(node *PredicateNode) {
		if node == nil {
			return
		}
		if node.Path != "" && !seen[node.Path] {
			seen[node.Path] = true
			paths = append(paths, node.Path)
		}
		for _, c := range node.Children {
			walk(c)
		}
	}
	walk(n)
	return paths
}

// String renders a compact, dialect-neutral form used in logs and the CLI.
func (n *PredicateNode) String() string {
	if n == nil {
		return "TRUE"
	}
	switch n.Kind {
	case KindTrue:
		return "TRUE"
	case KindAnd:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = c.String()
		}
		return "(" + strings.Join(parts, " AND ") + ")"
	case KindNot:
		return "NOT " + n.Children[0].String()
	case KindCompare:
		return n.Path + " " + string(n.Op) + " " + formatValue(n.Value)
	case KindLike:
		if n.Negated {
			return n.Path + " NOT LIKE '" + n.Pattern + "'"
		}
		return n.Path + " LIKE '" + n.Pattern + "'"
	case KindNull:
		if n.Negated {
			return n.Path + " IS NOT NULL"
		}
		return n.Path + " IS NULL"
	case KindIn:
		parts := make([]string, len(n.Values))
		for i, v := range n.Values {
			parts[i] = formatValue(v)
		}
		return n.Path + " IN (" + strings.Join(parts, ", ") + ")"
	}
	return string(n.Kind)
}
