package matching

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Candidate pairs a display name with an opaque handle owned by the caller
// (a Drive file ID, a WebDriver element reference). The resolver only echoes
// the handle back; it never inspects or dereferences it.
type Candidate struct {
	Name   string
	Handle string
}

// ScoredMatch is a candidate with its similarity score in [0, 1].
type ScoredMatch struct {
	Candidate Candidate
	Score     float64
}

// Result is the immutable outcome of a match run.
type Result struct {
	// Matches holds the ranked matches, capped at Options.MaxResults.
	Matches []ScoredMatch
	// HasDuplicates reports whether at least one duplicate group exists.
	HasDuplicates bool
	// DuplicateGroups clusters adjacent matches whose scores are too close to
	// distinguish. Groups always have two or more members and are computed on
	// the full filtered list, before the MaxResults cap.
	DuplicateGroups [][]ScoredMatch
	// Query is the raw search string as entered.
	Query string
	// CleanTerm is the query with any index notation stripped.
	CleanTerm string
	// ExplicitIndex is the parsed 1-based disambiguation index; valid only
	// when HasExplicitIndex is true.
	ExplicitIndex    int
	HasExplicitIndex bool
	// TotalMatches counts matches above the threshold before capping.
	TotalMatches int
}

// Options tunes match filtering and ranking.
type Options struct {
	// SimilarityThreshold is the minimum score for a candidate to count as a
	// match.
	SimilarityThreshold float64
	// DuplicateCloseness is the score above which two matches are considered
	// indistinguishable: adjacent matches join a duplicate group when their
	// score gap is below 1.0 - DuplicateCloseness.
	DuplicateCloseness float64
	// MaxResults caps the ranked match list. Zero or negative means no cap.
	MaxResults int
}

// DefaultOptions mirrors the thresholds the capture workflow ships with.
func DefaultOptions() Options {
	return Options{
		SimilarityThreshold: 0.6,
		DuplicateCloseness:  0.95,
		MaxResults:          10,
	}
}

// FindMatches scores every candidate against the query, filters by threshold,
// ranks descending (stable on the original candidate order), detects
// duplicate groups, and caps the ranked list.
func FindMatches(query string, candidates []Candidate, opts Options) Result {
	clean, index, hasIndex := ParseIndex(query)

	scored := make([]ScoredMatch, 0, len(candidates))
	for _, candidate := range candidates {
		score := Score(clean, candidate.Name)
		if score >= opts.SimilarityThreshold {
			scored = append(scored, ScoredMatch{Candidate: candidate, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	groups, hasDuplicates := duplicateGroups(scored, opts.DuplicateCloseness)

	ranked := scored
	if opts.MaxResults > 0 && len(ranked) > opts.MaxResults {
		ranked = ranked[:opts.MaxResults]
	}

	return Result{
		Matches:          ranked,
		HasDuplicates:    hasDuplicates,
		DuplicateGroups:  groups,
		Query:            query,
		CleanTerm:        clean,
		ExplicitIndex:    index,
		HasExplicitIndex: hasIndex,
		TotalMatches:     len(scored),
	}
}

// duplicateGroups walks the sorted matches and clusters runs whose pairwise
// score gaps fall below 1.0 - closeness. Membership is defined purely by
// score proximity, never by name equality.
func duplicateGroups(matches []ScoredMatch, closeness float64) ([][]ScoredMatch, bool) {
	if len(matches) < 2 {
		return nil, false
	}
	gapLimit := 1.0 - closeness
	var groups [][]ScoredMatch
	current := []ScoredMatch{matches[0]}
	for i := 1; i < len(matches); i++ {
		gap := matches[i-1].Score - matches[i].Score
		if gap < gapLimit {
			current = append(current, matches[i])
			continue
		}
		if len(current) > 1 {
			groups = append(groups, current)
		}
		current = []ScoredMatch{matches[i]}
	}
	if len(current) > 1 {
		groups = append(groups, current)
	}
	return groups, len(groups) > 0
}

// Strategy names a selection policy for picking one match from a Result.
type Strategy string

const (
	StrategyFirst   Strategy = "first"
	StrategyIndexed Strategy = "indexed"
	StrategyNewest  Strategy = "newest"
	StrategyOldest  Strategy = "oldest"
	StrategyLargest Strategy = "largest"
	StrategyAsk     Strategy = "ask"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(value string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(value))) {
	case StrategyFirst:
		return StrategyFirst, nil
	case StrategyIndexed:
		return StrategyIndexed, nil
	case StrategyNewest:
		return StrategyNewest, nil
	case StrategyOldest:
		return StrategyOldest, nil
	case StrategyLargest:
		return StrategyLargest, nil
	case StrategyAsk:
		return StrategyAsk, nil
	default:
		return "", fmt.Errorf("unknown selection strategy %q", value)
	}
}

// Selection is a resolved pick with the human-readable reason it was chosen.
type Selection struct {
	Candidate Candidate
	Score     float64
	Reason    string
}

// Select applies a strategy to a match result. The boolean is false when no
// selection could be made: empty results, the ask strategy, or an indexed
// strategy with no parsed index (all of which signal the caller to prompt).
//
// Side metadata, when required, must align positionally with result.Matches.
// A missing or length-mismatched slice declines the metadata-dependent
// strategy and falls back to the first match with an explanatory reason.
func Select(result Result, strategy Strategy, side []map[string]any) (Selection, bool) {
	matches := result.Matches
	if len(matches) == 0 {
		return Selection{}, false
	}

	switch strategy {
	case StrategyAsk:
		return Selection{}, false

	case StrategyIndexed:
		if !result.HasExplicitIndex {
			// No index to honor; equivalent to ask.
			return Selection{}, false
		}
		idx := result.ExplicitIndex - 1
		if idx >= 0 && idx < len(matches) {
			return selection(matches[idx], fmt.Sprintf("Selected by index #%d", result.ExplicitIndex)), true
		}
		return selection(matches[0], fmt.Sprintf("Index #%d out of range, using first match", result.ExplicitIndex)), true

	case StrategyNewest, StrategyOldest, StrategyLargest:
		if len(side) != len(matches) {
			return selection(matches[0], "Side metadata unavailable, using first match"), true
		}
		switch strategy {
		case StrategyNewest:
			return selection(extremumByTime(matches, side, true), "Selected by newest modified date"), true
		case StrategyOldest:
			return selection(extremumByTime(matches, side, false), "Selected by oldest modified date"), true
		default:
			return selection(extremumBySize(matches, side), "Selected by largest file size"), true
		}
	}

	reason := "Highest similarity score"
	if result.HasDuplicates {
		reason += " (duplicates detected - consider using index notation)"
	}
	return selection(matches[0], reason), true
}

func selection(match ScoredMatch, reason string) Selection {
	return Selection{Candidate: match.Candidate, Score: match.Score, Reason: reason}
}

// extremumByTime picks the match whose modifiedTime sorts highest (newest) or
// lowest (oldest). Modified times are compared as ISO-8601 strings; a missing
// field compares as the empty string.
func extremumByTime(matches []ScoredMatch, side []map[string]any, newest bool) ScoredMatch {
	best := 0
	for i := 1; i < len(matches); i++ {
		current := modifiedTime(side[i])
		chosen := modifiedTime(side[best])
		if newest && current > chosen {
			best = i
		}
		if !newest && current < chosen {
			best = i
		}
	}
	return matches[best]
}

func extremumBySize(matches []ScoredMatch, side []map[string]any) ScoredMatch {
	best := 0
	for i := 1; i < len(matches); i++ {
		if sizeValue(side[i]) > sizeValue(side[best]) {
			best = i
		}
	}
	return matches[best]
}

func modifiedTime(attrs map[string]any) string {
	if attrs == nil {
		return ""
	}
	if value, ok := attrs["modifiedTime"].(string); ok {
		return value
	}
	return ""
}

// sizeValue coerces the size attribute to a number. The Drive API reports
// sizes as decimal strings; malformed or missing values count as absent (0)
// rather than failing the selection.
func sizeValue(attrs map[string]any) int64 {
	if attrs == nil {
		return 0
	}
	switch value := attrs["size"].(type) {
	case int64:
		return value
	case int:
		return int64(value)
	case float64:
		return int64(value)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

// FormatDuplicateWarning renders a human-readable warning when a result
// contains duplicate groups, listing the ranked matches and the index
// notations that disambiguate them. Empty when no duplicates exist.
func FormatDuplicateWarning(result Result) string {
	if !result.HasDuplicates {
		return ""
	}
	var b strings.Builder
	b.WriteString("DUPLICATE FILES DETECTED\n")
	fmt.Fprintf(&b, "  Search: %q\n", result.Query)
	fmt.Fprintf(&b, "  Found %d similar files:\n", result.TotalMatches)
	for i, match := range result.Matches {
		fmt.Fprintf(&b, "    %d. %s (%.1f%%)\n", i+1, match.Candidate.Name, match.Score*100)
	}
	b.WriteString("  To select a specific file, use index notation:\n")
	fmt.Fprintf(&b, "    %q, %q, or %q\n",
		result.CleanTerm+" [2]",
		result.CleanTerm+" #2",
		result.CleanTerm+" (2)",
	)
	return b.String()
}
