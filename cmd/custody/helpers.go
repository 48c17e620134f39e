package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"custody/internal/matching"
	"custody/internal/services"
)

// promptAttempts bounds how many malformed answers a user gets before the
// capture aborts instead of looping forever on a closed stdin.
const promptAttempts = 3

// stdinPrompter resolves ambiguous matches by asking the operator to pick a
// numbered candidate.
type stdinPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newStdinPrompter(in io.Reader, out io.Writer) *stdinPrompter {
	return &stdinPrompter{in: bufio.NewReader(in), out: out}
}

func (p *stdinPrompter) Choose(ctx context.Context, query string, result matching.Result) (matching.Selection, error) {
	fmt.Fprintf(p.out, "\nMultiple files match %q:\n", query)
	for i, match := range result.Matches {
		fmt.Fprintf(p.out, "  %d. %s (%.1f%% match)\n", i+1, match.Candidate.Name, match.Score*100)
	}

	for attempt := 0; attempt < promptAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return matching.Selection{}, err
		}
		fmt.Fprintf(p.out, "Select a file [1-%d]: ", len(result.Matches))
		line, err := p.in.ReadString('\n')
		if err != nil && line == "" {
			return matching.Selection{}, services.Wrap(services.ErrValidation, "capture", "prompt", "read selection", err)
		}
		choice, convErr := strconv.Atoi(strings.TrimSpace(line))
		if convErr != nil || choice < 1 || choice > len(result.Matches) {
			fmt.Fprintf(p.out, "Enter a number between 1 and %d.\n", len(result.Matches))
			continue
		}
		match := result.Matches[choice-1]
		return matching.Selection{
			Candidate: match.Candidate,
			Score:     match.Score,
			Reason:    fmt.Sprintf("Selected interactively (#%d)", choice),
		}, nil
	}
	return matching.Selection{}, services.Wrap(services.ErrValidation, "capture", "prompt", "no valid selection entered", nil)
}
