package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"custody/internal/matching"
	"custody/internal/services/drive"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var strategyOverride string
	var modifiedAfter string
	var modifiedBefore string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <query>",
		Short: "Preview how a file name resolves against Drive",
		Long: "Searches Drive for the query, ranks the candidates by name " +
			"similarity, flags duplicate groups, and shows which file the " +
			"configured strategy would select. Nothing is captured.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.driveClient()
			if err != nil {
				return err
			}

			strategyName := cfg.Matching.Strategy
			if strategyOverride != "" {
				strategyName = strategyOverride
			}
			strategy, err := matching.ParseStrategy(strategyName)
			if err != nil {
				return err
			}

			// The Drive query needs the API's own filter syntax, and the
			// index suffix is a local disambiguator the API knows nothing
			// about. Strip it before listing, keep it for local matching.
			query := args[0]
			clean, _, _ := matching.ParseIndex(query)
			files, err := client.ListFiles(cmd.Context(),
				drive.Query(clean, modifiedAfter, modifiedBefore), cfg.Drive.PageSize)
			if err != nil {
				return err
			}

			candidates, side := driveCandidates(files)
			result := matching.FindMatches(query, candidates, matching.Options{
				SimilarityThreshold: cfg.Matching.SimilarityThreshold,
				DuplicateCloseness:  cfg.Matching.DuplicateCloseness,
				MaxResults:          cfg.Matching.MaxResults,
			})
			rankedSide := alignSideToMatches(result.Matches, candidates, side)

			selected, hasSelection := matching.Select(result, strategy, rankedSide)

			if asJSON {
				payload := struct {
					Query     string                 `json:"query"`
					Strategy  string                 `json:"strategy"`
					Matches   []matching.ScoredMatch `json:"matches"`
					Selection *matching.Selection    `json:"selection,omitempty"`
				}{Query: query, Strategy: string(strategy), Matches: result.Matches}
				if hasSelection {
					payload.Selection = &selected
				}
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			if len(result.Matches) == 0 {
				fmt.Fprintf(out, "No files matched %q above threshold %.2f\n", query, cfg.Matching.SimilarityThreshold)
				return nil
			}

			rows := make([][]string, 0, len(result.Matches))
			for i, match := range result.Matches {
				rows = append(rows, []string{
					fmt.Sprintf("%d", i+1),
					match.Candidate.Name,
					fmt.Sprintf("%.1f%%", match.Score*100),
					match.Candidate.Handle,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Name", "Score", "File ID"}, rows, 1, 3))

			if warning := matching.FormatDuplicateWarning(result); warning != "" {
				fmt.Fprint(out, warning)
			}

			if hasSelection {
				fmt.Fprintf(out, "Strategy %q selects: %s (%.1f%%)\n", strategy, selected.Candidate.Name, selected.Score*100)
				fmt.Fprintf(out, "  %s\n", selected.Reason)
			} else {
				fmt.Fprintf(out, "Strategy %q requires interactive disambiguation; capture would prompt.\n", strategy)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&strategyOverride, "strategy", "", "Override the configured duplicate strategy")
	cmd.Flags().StringVar(&modifiedAfter, "modified-after", "", "Only list files modified after this RFC 3339 timestamp")
	cmd.Flags().StringVar(&modifiedBefore, "modified-before", "", "Only list files modified before this RFC 3339 timestamp")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the match result as JSON")
	return cmd
}

// driveCandidates flattens Drive files into match candidates plus the side
// metadata the time and size strategies need, skipping files the API returned
// without an id or name.
func driveCandidates(files []drive.File) ([]matching.Candidate, []map[string]any) {
	candidates := make([]matching.Candidate, 0, len(files))
	side := make([]map[string]any, 0, len(files))
	for _, file := range files {
		if file.ID() == "" || file.Name() == "" {
			continue
		}
		candidates = append(candidates, matching.Candidate{Name: file.Name(), Handle: file.ID()})
		side = append(side, map[string]any(file))
	}
	return candidates, side
}

// alignSideToMatches reorders candidate side metadata to the ranked match
// order that matching.Select expects.
func alignSideToMatches(matches []matching.ScoredMatch, candidates []matching.Candidate, side []map[string]any) []map[string]any {
	byHandle := make(map[string]map[string]any, len(candidates))
	for i, candidate := range candidates {
		byHandle[candidate.Handle] = side[i]
	}
	aligned := make([]map[string]any, len(matches))
	for i, match := range matches {
		aligned[i] = byHandle[match.Candidate.Handle]
	}
	return aligned
}
