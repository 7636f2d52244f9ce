package parser

import (
	"strings"

	"github.com/omniql-engine/omnifilter/mapping"
)

// maxSuggestDistance bounds the edit distance of a suggestion.
const maxSuggestDistance = 3

// SuggestOperator finds the registered operator closest to token.
// Returns "" when nothing is within maxSuggestDistance edits.
func SuggestOperator(token string) string {
	upper := strings.ToUpper(token)

	var bestMatch string
	bestDistance := maxSuggestDistance + 1
	for _, op := range mapping.Operators {
		dist := levenshtein(upper, string(op))
		if dist < bestDistance {
			bestDistance = dist
			bestMatch = string(op)
		}
	}
	return bestMatch
}

// levenshtein calculates edit distance between two strings
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
