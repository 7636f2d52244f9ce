// Package redis matches compiled predicates against Redis hashes.
//
// Redis has no server-side filter, so records are scanned and matched in
// memory: hash fields are keyed by attribute path and hold string values
// that are converted to each referenced attribute's kind before matching.
package redis

import (
	"time"

	"github.com/omniql-engine/omnifilter/engine/ast"
	"github.com/omniql-engine/omnifilter/engine/convert"
	"github.com/omniql-engine/omnifilter/engine/eval"
	"github.com/omniql-engine/omnifilter/mapping"
)

// MatchesPredicate checks if a hash matches node. A nil conv uses the defaults.
func MatchesPredicate(hash map[string]string, node *ast.PredicateNode, conv *convert.Service) bool {
	if node.IsTrue() {
		return true
	}
	return NewHashMatcher(node, conv).Matches(hash)
}

// HashMatcher matches hashes against one predicate, compiling it once for a
// whole scan.
type HashMatcher struct {
	matcher *eval.Matcher
	kinds   map[string]mapping.Kind
	conv    *convert.Service
}

// NewHashMatcher prepares node. A nil conv uses the defaults.
func NewHashMatcher(node *ast.PredicateNode, conv *convert.Service) *HashMatcher {
	if conv == nil {
		conv = convert.New()
	}
	return &HashMatcher{matcher: eval.NewMatcher(node), kinds: PathKinds(node), conv: conv}
}

// Matches reports whether hash satisfies the predicate.
func (h *HashMatcher) Matches(hash map[string]string) bool {
	return h.matcher.Match(HashGetter(hash, h.kinds, h.conv))
}

// PathKinds collects the declared kind of every path referenced by node.
func PathKinds(node *ast.PredicateNode) map[string]mapping.Kind {
	kinds := map[string]mapping.Kind{}
	var walk func(*ast.PredicateNode)
	walk = func(n *ast.PredicateNode) {
		if n == nil {
			return
		}
		if n.Path != "" && n.Type != mapping.KindUnknown {
			kinds[n.Path] = n.Type
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(node)
	return kinds
}

// HashGetter reads typed values from a hash. A value that does not convert
// is returned as the raw string, which compares unequal to typed operands.
func HashGetter(hash map[string]string, kinds map[string]mapping.Kind, conv *convert.Service) eval.Getter {
	return func(path string) (any, bool) {
		raw, exists := hash[path]
		if !exists {
			return nil, false
		}
		return typedValue(raw, kinds[path], conv), true
	}
}

// HashToRecord converts a whole hash using kinds, for returning results.
func HashToRecord(hash map[string]string, kinds map[string]mapping.Kind, conv *convert.Service) map[string]any {
	record := make(map[string]any, len(hash))
	for k, v := range hash {
		record[k] = typedValue(v, kinds[k], conv)
	}
	return record
}

func typedValue(raw string, kind mapping.Kind, conv *convert.Service) any {
	if kind == mapping.KindUnknown || kind == mapping.KindString || !conv.CanConvert(mapping.KindString, kind) {
		return raw
	}
	v, err := conv.Convert(raw, kind)
	if err == nil {
		return v
	}
	if mapping.IsDateCompatible(kind) {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return t
		}
	}
	return raw
}
