package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"custody/internal/sessionstore"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and manage capture sessions",
	}

	sessionsCmd.AddCommand(newSessionsListCommand(ctx))
	sessionsCmd.AddCommand(newSessionsShowCommand(ctx))
	sessionsCmd.AddCommand(newSessionsDeleteCommand(ctx))
	sessionsCmd.AddCommand(newSessionsClearCommand(ctx))

	return sessionsCmd
}

func newSessionsListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List capture sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var statuses []sessionstore.Status
			for _, raw := range listStatuses {
				status := sessionstore.Status(raw)
				if !status.Valid() {
					return fmt.Errorf("unknown session status %q", raw)
				}
				statuses = append(statuses, status)
			}

			sessions, err := store.List(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, sessions)
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded")
				return nil
			}

			rows := make([][]string, 0, len(sessions))
			for _, session := range sessions {
				rows = append(rows, []string{
					session.ID,
					session.Query,
					string(session.Status),
					fmt.Sprintf("%d", session.FileCount),
					session.CreatedAt.Local().Format(time.RFC3339),
				})
			}
			table := renderTable([]string{"ID", "Query", "Status", "Files", "Created"}, rows, 4)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by session status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit sessions as JSON")
	return cmd
}

func newSessionsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one session in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			session, err := store.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if session == nil {
				return fmt.Errorf("session %s not found", args[0])
			}
			if asJSON {
				return writeJSON(cmd, session)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session:       %s\n", session.ID)
			fmt.Fprintf(out, "Query:         %s\n", session.Query)
			fmt.Fprintf(out, "Status:        %s\n", session.Status)
			fmt.Fprintf(out, "Files:         %d\n", session.FileCount)
			if session.BaselineDigest != "" {
				fmt.Fprintf(out, "Baseline hash: %s\n", session.BaselineDigest)
			}
			if session.PostDigest != "" {
				fmt.Fprintf(out, "Post hash:     %s\n", session.PostDigest)
			}
			if session.Verified != nil {
				fmt.Fprintf(out, "Verified:      %s\n", yesNo(*session.Verified))
			}
			if session.ReportDir != "" {
				fmt.Fprintf(out, "Evidence dir:  %s\n", session.ReportDir)
			}
			if session.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:         %s\n", session.ErrorMessage)
			}
			fmt.Fprintf(out, "Created:       %s\n", session.CreatedAt.Local().Format(time.RFC3339))
			fmt.Fprintf(out, "Updated:       %s\n", session.UpdatedAt.Local().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the session as JSON")
	return cmd
}

func newSessionsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session record",
		Long: "Removes the session row from the local database. Evidence files on " +
			"disk are left untouched.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			session, err := store.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if session == nil {
				return fmt.Errorf("session %s not found", args[0])
			}
			if err := store.Delete(cmd.Context(), session.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", session.ID)
			return nil
		},
	}
}

func newSessionsClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all session records",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d session(s)\n", removed)
			return nil
		},
	}
}
