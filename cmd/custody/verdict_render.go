package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"custody/internal/integrity"
)

var (
	passColor = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow)
)

// renderVerdict prints the verification outcome with the violation detail a
// reviewer needs to act on a failure.
func renderVerdict(out io.Writer, verdict integrity.Verdict) {
	colorize := shouldColorize(out)

	if verdict.Match {
		fmt.Fprintln(out, paint(colorize, passColor, "VERIFICATION PASSED"))
		fmt.Fprintf(out, "All %d file(s) unchanged between captures.\n", verdict.RecordCount)
	} else {
		fmt.Fprintln(out, paint(colorize, failColor, "VERIFICATION FAILED"))
		fmt.Fprintf(out, "%d of %d file(s) show critical timestamp changes.\n",
			len(verdict.Violations), verdict.RecordCount)
	}

	fmt.Fprintf(out, "Baseline hash: %s\n", verdict.BeforeDigest)
	fmt.Fprintf(out, "Post hash:     %s\n", verdict.AfterDigest)

	for _, violation := range verdict.Violations {
		name := violation.FileName
		if name == "" {
			name = violation.FileID
		}
		fmt.Fprintln(out, paint(colorize, warnColor, fmt.Sprintf("  %s:", name)))
		for _, change := range violation.Changes {
			fmt.Fprintf(out, "    %s: %q -> %q\n", change.Field, change.Before, change.After)
		}
	}
}

func paint(colorize bool, c *color.Color, s string) string {
	if !colorize {
		return s
	}
	return c.Sprint(s)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
