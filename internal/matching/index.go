package matching

import (
	"regexp"
	"strconv"
	"strings"
)

// Index notation patterns, checked in a fixed order. Only the first match is
// stripped; parsing is not recursive.
var indexPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\s*\[(\d+)\]\s*$`),
	regexp.MustCompile(`\s*#(\d+)\s*$`),
	regexp.MustCompile(`\s*\((\d+)\)\s*$`),
}

// ParseIndex extracts a trailing 1-based disambiguation index from a query.
// "Report [2]", "Report #2", and "Report (2)" all yield ("Report", 2, true).
// Queries without a recognized suffix come back unchanged with ok false.
func ParseIndex(query string) (clean string, index int, ok bool) {
	for _, pattern := range indexPatterns {
		match := pattern.FindStringSubmatch(query)
		if match == nil {
			continue
		}
		parsed, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		return strings.TrimSpace(pattern.ReplaceAllString(query, "")), parsed, true
	}
	return query, 0, false
}
