// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"regexp"
	"strings"
)

// tokenRe matches word-like runs: letters, digits, underscores and hyphens.
// Combining marks are not word characters and split tokens.
var tokenRe = regexp.MustCompile(`[\p{L}\p{N}_-]+`)

// normalizeText lowercases s and collapses whitespace.
func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// tokenSet returns the distinct tokens of s.
func tokenSet(s string) map[string]struct{} {
	tokens := tokenRe.FindAllString(normalizeText(s), -1)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// LexicalScore is the Jaccard overlap of the query and title token sets.
// It is 0 when either side has no tokens.
func LexicalScore(query, title string) float64 {
	q := tokenSet(query)
	d := tokenSet(title)
	if len(q) == 0 || len(d) == 0 {
		return 0
	}

	overlap := 0
	for t := range q {
		if _, ok := d[t]; ok {
			overlap++
		}
	}
	union := len(q) + len(d) - overlap
	return float64(overlap) / float64(union)
}
