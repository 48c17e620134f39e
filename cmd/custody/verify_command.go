package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"custody/internal/integrity"
	"custody/internal/report"
	"custody/internal/services"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "verify <session-id | baseline.json post.json>",
		Short: "Re-run hash verification on captured snapshots",
		Long: "Recomputes the SHA-256 comparison from evidence files on disk. " +
			"Pass a session ID to verify its stored snapshots, or two snapshot " +
			"paths to compare arbitrary captures. The stored session, if any, is " +
			"not modified: verification outcomes recorded at capture time are final.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var baselinePath, postPath string
			if len(args) == 2 {
				baselinePath, postPath = args[0], args[1]
			} else {
				paths, err := sessionSnapshotPaths(ctx, cmd, args[0])
				if err != nil {
					return err
				}
				baselinePath, postPath = paths[0], paths[1]
			}

			baseline, err := report.ReadSnapshot(baselinePath)
			if err != nil {
				return err
			}
			post, err := report.ReadSnapshot(postPath)
			if err != nil {
				return err
			}

			verdict, err := integrity.Compare(baseline.Files, post.Files)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, verdict)
			}
			renderVerdict(cmd.OutOrStdout(), verdict)
			if !verdict.Match {
				return services.Wrap(services.ErrValidation, "verify", "compare", "hash mismatch between captures", nil)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the verdict as JSON")
	return cmd
}

func sessionSnapshotPaths(ctx *commandContext, cmd *cobra.Command, sessionID string) ([2]string, error) {
	store, err := ctx.openStore()
	if err != nil {
		return [2]string{}, err
	}
	defer store.Close()

	session, err := store.GetByID(cmd.Context(), sessionID)
	if err != nil {
		return [2]string{}, err
	}
	if session == nil {
		return [2]string{}, fmt.Errorf("session %s not found", sessionID)
	}
	if session.ReportDir == "" {
		return [2]string{}, errors.New("session has no evidence directory recorded")
	}
	writer, err := report.NewWriter(session.ReportDir)
	if err != nil {
		return [2]string{}, err
	}
	return [2]string{writer.BaselinePath(session.ID), writer.PostPath(session.ID)}, nil
}
