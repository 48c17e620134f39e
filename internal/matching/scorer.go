package matching

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// normalize trims whitespace and case-folds a string for comparison.
func normalize(value string) string {
	return foldCaser.String(strings.TrimSpace(value))
}

// Score rates how well a free-text query matches a candidate name, returning
// a value in [0, 1]. Exact matches (after trim and case fold) score 1.0.
// Substring containment scores 0.85 plus a coverage bonus so near-complete
// containment approaches but never reaches an exact match. Everything else
// falls through to a blend of sequence similarity and word overlap.
func Score(query, candidate string) float64 {
	q := normalize(query)
	c := normalize(candidate)

	if q == c {
		return 1.0
	}

	// An empty query is never treated as contained: it must not match every
	// candidate at substring strength, it falls through and scores 0.
	if q != "" && c != "" && strings.Contains(c, q) {
		coverage := float64(utf8.RuneCountInString(q)) / float64(utf8.RuneCountInString(c))
		return 0.85 + 0.15*coverage
	}

	return 0.7*sequenceRatio(q, c) + 0.3*wordOverlap(q, c)
}

// sequenceRatio is a normalized edit-distance ratio: 1.0 for identical
// sequences, 0.0 for completely dissimilar ones.
func sequenceRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra := []rune(a)
	rb := []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
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
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// wordOverlap is the share of the query's whitespace-delimited words that
// also appear in the candidate. Zero when the query has no words.
func wordOverlap(query, candidate string) float64 {
	queryWords := strings.Fields(query)
	if len(queryWords) == 0 {
		return 0
	}
	candidateWords := make(map[string]struct{})
	for _, w := range strings.Fields(candidate) {
		candidateWords[w] = struct{}{}
	}
	seen := make(map[string]struct{}, len(queryWords))
	common := 0
	for _, w := range queryWords {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := candidateWords[w]; ok {
			common++
		}
	}
	return float64(common) / float64(len(seen))
}
